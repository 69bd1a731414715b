package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/streamjson/goyajl"
	"github.com/streamjson/goyajl/bytesource"
	"github.com/streamjson/goyajl/ndjson"
)

var selectPath string

var ndjsonCmd = &cobra.Command{
	Use:   "ndjson [file]",
	Short: "Project a JSON document into newline-delimited JSON",
	Long: `Project a JSON document into newline-delimited JSON.

--select addresses the array to project as a dot-separated path of
object keys and array indices, e.g. --select foo.0.bar projects the
array found at document.foo[0].bar. With no --select, the document
itself is expected to be the target array.`,
	Args: cobra.MaximumNArgs(1),
	RunE: projectDocument,
}

func init() {
	rootCmd.AddCommand(ndjsonCmd)

	ndjsonCmd.Flags().StringVar(&selectPath, "select", "", "dot-separated selector path to the target array")
}

func projectDocument(_ *cobra.Command, args []string) error {
	selectors, err := parseSelectPath(selectPath)
	if err != nil {
		return fmt.Errorf("invalid --select: %w", err)
	}

	var src goyajl.ByteSource

	if len(args) == 1 {
		s, closeFn, err := bytesource.FromFile(args[0])
		if err != nil {
			return err
		}
		defer closeFn()

		src = s
	} else {
		buf, err := readInput(nil)
		if err != nil {
			return err
		}

		src = bytesource.FromBytes(buf)
	}

	h := ndjson.New(os.Stdout, selectors)
	p := goyajl.NewParser(h)

	if err := p.Parse(src); err != nil {
		return fmt.Errorf("parse failed: %w", err)
	}

	return h.Err()
}

// parseSelectPath turns a dot-separated path like "foo.0.bar" into a
// Selector slice, treating any segment that parses as a non-negative
// integer as an Index and everything else as an Identifier.
func parseSelectPath(path string) ([]ndjson.Selector, error) {
	if path == "" {
		return nil, nil
	}

	segments := strings.Split(path, ".")
	selectors := make([]ndjson.Selector, 0, len(segments))

	for _, seg := range segments {
		if seg == "" {
			return nil, fmt.Errorf("empty path segment in %q", path)
		}

		if n, err := strconv.Atoi(seg); err == nil && n >= 0 {
			selectors = append(selectors, ndjson.Index(n))
			continue
		}

		selectors = append(selectors, ndjson.Identifier(seg))
	}

	return selectors, nil
}
