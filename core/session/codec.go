package session

import (
	"crypto/sha256"
	"encoding/json"

	"github.com/gorilla/securecookie"
	"github.com/pkg/errors"
)

var hashSalt = []byte("mahudhurio.core.session.codec")

// Codec serializes the account & profile slots of a Record.
type Codec interface {
	Encode(name string, value interface{}) (string, error)
	Decode(name, encoded string, dst interface{}) error
}

// JSONCodec stores values as plain JSON.
type JSONCodec struct{}

func (JSONCodec) Encode(_ string, value interface{}) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (JSONCodec) Decode(_, encoded string, dst interface{}) error {
	return json.Unmarshal([]byte(encoded), dst)
}

// SignedCodec stores values as JSON signed with an HMAC derived from the secret key.
// Values that were tampered with, or signed with another key, fail to decode.
type SignedCodec struct {
	sc *securecookie.SecureCookie
}

func NewSignedCodec(secretKey string) *SignedCodec {
	hashKey := sha256.Sum256(append(append([]byte{}, hashSalt...), secretKey...))
	sc := securecookie.New(hashKey[:], nil)
	sc.SetSerializer(securecookie.JSONEncoder{})
	sc.MaxAge(0)    // the backend decides when a session expires
	sc.MaxLength(0) // profiles may exceed the cookie size limit
	return &SignedCodec{sc: sc}
}

func (c *SignedCodec) Encode(name string, value interface{}) (string, error) {
	encoded, err := c.sc.Encode(name, value)
	return encoded, errors.Wrap(err, "signing value")
}

func (c *SignedCodec) Decode(name, encoded string, dst interface{}) error {
	return errors.Wrap(c.sc.Decode(name, encoded, dst), "verifying value")
}
