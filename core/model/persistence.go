package model

import (
	"encoding/gob"
	"fmt"
	"io"
	"os"

	"github.com/farzadhallaji/semiJCP/pkg/errors"
)

// SaveModel writes a model to a file using gob encoding.
//
// Example:
//
//	var tcc cp.TransductiveClassifier
//	// ... training ...
//	err := model.SaveModel(&tcc, "model.gob")
func SaveModel(model interface{}, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.NewPersistenceError("save model to", filename, err)
	}
	defer file.Close()

	encoder := gob.NewEncoder(file)
	if err := encoder.Encode(model); err != nil {
		return errors.NewPersistenceError("save model to", filename,
			fmt.Errorf("failed to encode model: %w", err))
	}

	return nil
}

// LoadModel restores a model from a file written by SaveModel. The returned
// error wraps the underlying cause so callers can distinguish a missing file
// from a corrupt or incompatible one.
//
// Example:
//
//	var tcc cp.TransductiveClassifier
//	err := model.LoadModel(&tcc, "model.gob")
func LoadModel(model interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.NewPersistenceError("load model from", filename, err)
	}
	defer file.Close()

	decoder := gob.NewDecoder(file)
	if err := decoder.Decode(model); err != nil {
		return errors.NewPersistenceError("load model from", filename,
			fmt.Errorf("failed to decode model: %w", err))
	}

	return nil
}

// SaveModelToWriter writes a model to w using gob encoding.
func SaveModelToWriter(model interface{}, w io.Writer) error {
	encoder := gob.NewEncoder(w)
	if err := encoder.Encode(model); err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	return nil
}

// LoadModelFromReader restores a model from r.
func LoadModelFromReader(model interface{}, r io.Reader) error {
	decoder := gob.NewDecoder(r)
	if err := decoder.Decode(model); err != nil {
		return fmt.Errorf("failed to decode model: %w", err)
	}
	return nil
}
