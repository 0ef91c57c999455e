package records

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/platform/apperr"
)

//go:embed schema/submission.json
var submissionSchemaJSON string

var submissionSchema = mustSchema(submissionSchemaJSON)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("records: invalid submission schema: %v", err))
	}
	return s
}

// DecodeSubmission validates a raw JSON payload against the submission
// schema and decodes it.
func DecodeSubmission(payload []byte) (Submission, error) {
	var sub Submission
	result, err := submissionSchema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return sub, fmt.Errorf("invalid JSON: %v: %w", err, apperr.ErrInvalidInput)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return sub, fmt.Errorf("payload failed schema validation: %s: %w", strings.Join(msgs, "; "), apperr.ErrInvalidInput)
	}
	if err := json.Unmarshal(payload, &sub); err != nil {
		return sub, fmt.Errorf("decode submission: %v: %w", err, apperr.ErrInvalidInput)
	}
	return sub, nil
}
