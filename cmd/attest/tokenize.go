package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"attest/internal/diag"
	"attest/internal/lexer"
	"attest/internal/source"
	"attest/internal/token"
)

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize [flags] file.att",
	Short: "Tokenize an attest source file",
	Long:  `Tokenize breaks an attest source file into its significant tokens, one per line.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenize,
}

func runTokenize(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	unit, err := source.Load(args[0])
	if err != nil {
		return err
	}

	bag := &diag.Bag{}
	lx := lexer.New(unit, bag)
	out := cmd.OutOrStdout()
	for {
		tok := lx.Next()
		if tok.Kind == token.EOF {
			break
		}
		pos := unit.LineCol(tok.Span.Start)
		if tok.Text != "" {
			fmt.Fprintf(out, "%s\t%s\t%q\n", pos, tok.Kind, tok.Text)
		} else {
			fmt.Fprintf(out, "%s\t%s\n", pos, tok.Kind)
		}
	}

	for _, d := range bag.All() {
		fmt.Fprintln(cmd.ErrOrStderr(), d.String())
	}
	if bag.HasErrors() {
		return fmt.Errorf("tokenization produced errors")
	}
	return nil
}
