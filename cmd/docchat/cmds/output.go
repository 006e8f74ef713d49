package cmds

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-go-golems/docchat/pkg/apierror"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func addOutputFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "text", "Output format (text, json, yaml)")
}

// writeStructured writes v as json or yaml and reports whether it did.
func writeStructured(cmd *cobra.Command, w io.Writer, v interface{}) (bool, error) {
	format, _ := cmd.Flags().GetString("output")
	switch format {
	case "", "text":
		return false, nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case "yaml":
		b, err := yaml.Marshal(v)
		if err != nil {
			return true, err
		}
		_, err = w.Write(b)
		return true, err
	}
	return true, errors.Errorf("unknown output format %q", format)
}

func printf(w io.Writer, format string, args ...interface{}) {
	_, _ = fmt.Fprintf(w, format, args...)
}

func errorMessage(err error) string {
	return apierror.UserMessage(err)
}
