// Package report serializes daily and window summaries into the documents
// handed to the persistence layer: JSON with stable keys and full numeric
// precision, plus a plain-text narrative for monthly windows. Rendering
// never mutates its input; an unrepresentable value (NaN or infinity) fails
// only the document being rendered.
package report

import (
	"encoding/json"

	"github.com/tradekit/flexmetrics/internal/core"
)

// Render serializes any document to indented JSON. A NaN or infinite number
// anywhere in the document surfaces as ErrUnrenderableValue.
func Render(doc any) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		if _, ok := err.(*json.UnsupportedValueError); ok {
			return nil, core.WrapError(core.ErrUnrenderableValue, err)
		}
		return nil, err
	}
	return append(data, '\n'), nil
}
