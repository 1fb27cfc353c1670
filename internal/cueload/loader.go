// Package cueload loads authored survey definitions from CUE files. Files
// are unified against the embedded authoring schema, decoded into the survey
// model, and semantically validated, so the engine only ever sees
// well-formed surveys.
package cueload

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/fountainhq/fountain/internal/survey"
)

//go:embed schema.cue
var schemaCUE string

// LoadMode controls how errors are handled during loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// Error codes for LoadError.
const (
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeNoFiles       = "NO_FILES"
	ErrCodeLoadFailed    = "LOAD_FAILED"
	ErrCodeDecodeFailed  = "DECODE_FAILED"
	ErrCodeInvalidSurvey = "INVALID_SURVEY"
)

// LoadError represents an error that occurred during definition loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadResult contains the results of loading definitions from a directory.
type LoadResult struct {
	Surveys   []survey.Survey
	FileCount int
}

// Load loads and validates survey definitions from a directory of CUE files.
// If mode is LoadModeFailFast, it returns on the first error; in
// LoadModeCollectAll every problem is reported.
func Load(dir string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("definitions directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing definitions directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("compiling schema: %v", err)}}
	}

	cfg := &load.Config{Dir: dir}
	instances := load.Instances([]string{"."}, cfg)
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	// Unify with the authoring schema so type and enum violations surface
	// with positions before decoding.
	unified := value.Unify(schema)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("definitions do not match schema: %v", err), Pos: value.Pos()}}
	}

	result := &LoadResult{FileCount: len(cueFiles)}
	var errs []error

	surveysVal := unified.LookupPath(cue.ParsePath("surveys"))
	if !surveysVal.Exists() {
		return result, []error{&LoadError{Code: ErrCodeNoFiles, Message: "no surveys found in definitions"}}
	}

	iter, iterErr := surveysVal.List()
	if iterErr != nil {
		return result, []error{&LoadError{Code: ErrCodeDecodeFailed, Message: fmt.Sprintf("iterating surveys: %v", iterErr)}}
	}
	for iter.Next() {
		sv, decodeErrs := decodeSurvey(iter.Value())
		if len(decodeErrs) > 0 {
			errs = append(errs, decodeErrs...)
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		result.Surveys = append(result.Surveys, *sv)
	}

	if len(result.Surveys) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeNoFiles, Message: "no surveys found in definitions"})
	}

	return result, errs
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
