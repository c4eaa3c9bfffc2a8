// Package index decodes index feeds as a stream.
//
// A feed is a JSON object with a "repo" record and a "packages" object
// keyed by package name. Both full indexes and diffs share this shape;
// the decoder hands raw records to a Receiver without interpreting them,
// so a large feed is never held in memory at once.
package index

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
)

// Receiver consumes the records of a feed in document order.
type Receiver interface {
	// ReceiveRepo is called once with the raw "repo" record.
	ReceiveRepo(ctx context.Context, raw json.RawMessage) error

	// ReceivePackage is called for every entry of "packages". raw is the
	// literal null for a deleted package in a diff.
	ReceivePackage(ctx context.Context, packageName string, raw json.RawMessage) error

	// StreamEnded is called after the last record was received.
	StreamEnded(ctx context.Context) error
}

// Decode streams the feed in r into recv. Unknown top-level keys are skipped.
// The first error, from the decoder or from recv, stops decoding.
func Decode(ctx context.Context, r io.Reader, recv Receiver) error {
	dec := json.NewDecoder(r)
	if err := expectDelim(dec, '{'); err != nil {
		return err
	}
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return err
		}
		switch key {
		case domain.IndexKeyRepo:
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				return fmt.Errorf("%w: repo: %w", domain.ErrSerialization, err)
			}
			if err := recv.ReceiveRepo(ctx, raw); err != nil {
				return err
			}
		case domain.IndexKeyPackages:
			if err := decodePackages(ctx, dec, recv); err != nil {
				return err
			}
		default:
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return fmt.Errorf("%w: %s: %w", domain.ErrSerialization, key, err)
			}
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return err
	}
	return recv.StreamEnded(ctx)
}

func decodePackages(ctx context.Context, dec *json.Decoder, recv Receiver) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: packages: %w", domain.ErrSerialization, err)
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("%w: packages is not an object", domain.ErrSerialization)
	}
	for dec.More() {
		if err := ctx.Err(); err != nil {
			return err
		}
		name, err := readKey(dec)
		if err != nil {
			return err
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("%w: package %s: %w", domain.ErrSerialization, name, err)
		}
		if err := recv.ReceivePackage(ctx, name, raw); err != nil {
			return fmt.Errorf("package %s: %w", name, err)
		}
	}
	return expectDelim(dec, '}')
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrSerialization, err)
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("%w: expected key, got %v", domain.ErrSerialization, tok)
	}
	return key, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSerialization, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("%w: expected %q, got %v", domain.ErrSerialization, want, tok)
	}
	return nil
}
