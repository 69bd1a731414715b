package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/streamjson/goyajl"
	"github.com/streamjson/goyajl/bytesource"
	"github.com/tidwall/pretty"
)

var validatePretty bool

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Parse a JSON document and report whether it is well-formed",
	Args:  cobra.MaximumNArgs(1),
	RunE:  validateDocument,
}

func init() {
	validateCmd.Flags().BoolVar(&validatePretty, "pretty", false, "re-indent the document to stdout once it is confirmed well-formed")
	rootCmd.AddCommand(validateCmd)
}

// nopHandler discards every event; it exists only to drive a Parser
// through a document for validate's parse-only pass.
type nopHandler struct{}

func (nopHandler) HandleNull(*goyajl.Context) goyajl.Status            { return goyajl.Continue }
func (nopHandler) HandleBool(*goyajl.Context, bool) goyajl.Status      { return goyajl.Continue }
func (nopHandler) HandleInt(*goyajl.Context, int64) goyajl.Status      { return goyajl.Continue }
func (nopHandler) HandleDouble(*goyajl.Context, float64) goyajl.Status { return goyajl.Continue }
func (nopHandler) HandleString(*goyajl.Context, string) goyajl.Status  { return goyajl.Continue }
func (nopHandler) HandleStartMap(*goyajl.Context) goyajl.Status        { return goyajl.Continue }
func (nopHandler) HandleMapKey(*goyajl.Context, string) goyajl.Status  { return goyajl.Continue }
func (nopHandler) HandleEndMap(*goyajl.Context) goyajl.Status          { return goyajl.Continue }
func (nopHandler) HandleStartArray(*goyajl.Context) goyajl.Status      { return goyajl.Continue }
func (nopHandler) HandleEndArray(*goyajl.Context) goyajl.Status        { return goyajl.Continue }

func validateDocument(_ *cobra.Command, args []string) error {
	var src goyajl.ByteSource
	var stdinBuf []byte

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

		stdinBuf = buf
		src = bytesource.FromBytes(buf)
	}

	p := goyajl.NewParser(nopHandler{})

	if err := p.Parse(src); err != nil {
		return fmt.Errorf("invalid: %w", err)
	}

	if err := p.FinishParse(); err != nil {
		return fmt.Errorf("invalid: %w", err)
	}

	fmt.Println("valid")

	if validatePretty {
		raw := stdinBuf
		if raw == nil {
			var err error
			if raw, err = os.ReadFile(args[0]); err != nil {
				return err
			}
		}

		os.Stdout.Write(pretty.Pretty(raw))
	}

	return nil
}
