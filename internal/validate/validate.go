// Package validate checks a written PDF with pdfcpu.
package validate

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// File validates the PDF at path in relaxed mode, which accepts the
// deviations common in real-world producers.
func File(path string) error {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	if err := api.ValidateFile(path, conf); err != nil {
		return fmt.Errorf("validate %s: %w", path, err)
	}
	return nil
}
