package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/streamjson/goyajl/lexer"
)

var lexCmd = &cobra.Command{
	Use:   "lex [file]",
	Short: "Tokenize a JSON document and print the resulting tokens",
	Long: `Tokenize a JSON document and print one line per token.

With no file argument, reads the document from stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: lexDocument,
}

func init() {
	rootCmd.AddCommand(lexCmd)
}

func lexDocument(_ *cobra.Command, args []string) error {
	buf, err := readInput(args)
	if err != nil {
		return err
	}

	count := 0
	for len(buf) > 0 {
		n, tok, err := lexer.Scan(buf, true)
		if err != nil {
			return fmt.Errorf("lexical error after %d tokens: %w", count, err)
		}

		buf = buf[n:]

		if tok.Kind == lexer.KindWhitespace {
			continue
		}

		fmt.Println(formatToken(tok))
		count++
	}

	return nil
}

func formatToken(tok lexer.Token) string {
	switch tok.Kind {
	case lexer.KindString:
		return fmt.Sprintf("%-10s %q", tok.Kind, tok.Text)
	case lexer.KindInt:
		return fmt.Sprintf("%-10s %d", tok.Kind, tok.Int)
	case lexer.KindFloat:
		return fmt.Sprintf("%-10s %g", tok.Kind, tok.Float64)
	case lexer.KindBool:
		return fmt.Sprintf("%-10s %t", tok.Kind, tok.Bool)
	default:
		return tok.Kind.String()
	}
}

func readInput(args []string) ([]byte, error) {
	if len(args) == 1 {
		return os.ReadFile(args[0])
	}

	return io.ReadAll(os.Stdin)
}
