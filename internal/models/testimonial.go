// internal/models/testimonial.go
package models

import (
	"fmt"
	"strconv"
)

// Testimonial is one customer quote with a 1-5 star rating.
type Testimonial struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Text   string `json:"text"`
	Rating int    `json:"rating"`
}

// NewTestimonialTemplate is the empty form state for a fresh testimonial.
func NewTestimonialTemplate() Testimonial {
	return Testimonial{Rating: 5}
}

// SetField updates one named field from its form value.
func (t *Testimonial) SetField(name, value string) error {
	switch name {
	case "name":
		t.Name = value
	case "text":
		t.Text = value
	case "rating":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("rating must be an integer: %w", err)
		}
		t.Rating = v
	default:
		return fmt.Errorf("unknown testimonial field %q", name)
	}
	return nil
}

func (t Testimonial) ToRecord() (JSONB, error) {
	return encodeRecord(t)
}

func TestimonialFromRecord(id string, rec JSONB) (Testimonial, error) {
	var t Testimonial
	if err := decodeRecord(rec, &t); err != nil {
		return Testimonial{}, err
	}
	t.ID = id
	return t, nil
}
