// Package decoder contains the default [domain.Decoder] implementation.
package decoder

import (
	"github.com/mitchellh/mapstructure"

	"github.com/jGRUBBS/mongomodel/domain"
)

// Decoder implements domain.Decoder on top of mapstructure.
type Decoder struct{}

// NewDecoder returns a new implementation of domain.Decoder.
func NewDecoder() domain.Decoder {
	return &Decoder{}
}

// Decode implements domain.Decoder. Field names are controlled by the "mongo"
// struct tag.
func (d *Decoder) Decode(src any, tgt any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "mongo",
		Result:  tgt,
	})
	if err != nil {
		return err
	}
	return dec.Decode(src)
}
