package procedures

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"
)

// LoadError reports a signature file that could not be read.
type LoadError struct {
	File    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

func cueError(file string, err error) error {
	var ce cueerrors.Error
	if errors.As(err, &ce) {
		return &LoadError{File: file, Message: ce.Error(), Pos: ce.Position()}
	}
	return &LoadError{File: file, Message: err.Error()}
}

// LoadCUE reads signatures declared under the top-level procedure field:
//
//	procedure: "test.getName": {
//		params: [{name: "id", type: "INTEGER"}]
//		results: [{name: "name", type: "STRING"}]
//	}
func LoadCUE(file string, data []byte) ([]Signature, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(file))
	if err := v.Err(); err != nil {
		return nil, cueError(file, err)
	}

	procVal := v.LookupPath(cue.ParsePath("procedure"))
	if !procVal.Exists() {
		return nil, nil
	}
	iter, err := procVal.Fields()
	if err != nil {
		return nil, cueError(file, err)
	}

	var sigs []Signature
	for iter.Next() {
		var sig Signature
		if err := iter.Value().Decode(&sig); err != nil {
			return nil, cueError(file, err)
		}
		sig.Name = iter.Label()
		if _, err := validate(sig); err != nil {
			return nil, &LoadError{File: file, Message: err.Error(), Pos: iter.Value().Pos()}
		}
		sigs = append(sigs, sig)
	}
	return sigs, nil
}

type yamlFile struct {
	Procedures []Signature `yaml:"procedures"`
}

// LoadYAML reads signatures from a document with a procedures list.
// Unknown fields are rejected.
func LoadYAML(file string, r io.Reader) ([]Signature, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc yamlFile
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, &LoadError{File: file, Message: err.Error()}
	}
	for _, sig := range doc.Procedures {
		if _, err := validate(sig); err != nil {
			return nil, &LoadError{File: file, Message: err.Error()}
		}
	}
	return doc.Procedures, nil
}

// LoadFile reads one .cue, .yaml or .yml file.
func LoadFile(path string) ([]Signature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return LoadCUE(path, data)
	case ".yaml", ".yml":
		return LoadYAML(path, bytes.NewReader(data))
	}
	return nil, &LoadError{File: path, Message: "unsupported signature file type"}
}

// IsSignatureFile reports whether path has an extension LoadFile reads.
func IsSignatureFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue", ".yaml", ".yml":
		return true
	}
	return false
}

// LoadDir reads every signature file under dir in lexical path order, so
// a later file overrides an earlier one on duplicate names.
func LoadDir(dir string) ([]Signature, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if IsSignatureFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	sort.Strings(files)

	var sigs []Signature
	for _, f := range files {
		s, err := LoadFile(f)
		if err != nil {
			return nil, err
		}
		sigs = append(sigs, s...)
	}
	return sigs, nil
}
