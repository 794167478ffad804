// Copyright 2024 Quantpoll, Inc.
//
//  Licensed under the Apache License, Version 2.0 (the "License");
//  you may not use this file except in compliance with the License.
//  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.

// Command filterql compiles filter expressions between their
// readable text form and the wire format of the analytics service.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/quantpoll/filterql/catalog"
	"github.com/quantpoll/filterql/expr"
	"github.com/quantpoll/filterql/expr/parser"
	"github.com/quantpoll/filterql/resolve"
)

var (
	schemaPath string
	platonic   bool
	token      string
)

func main() {
	root := &cobra.Command{
		Use:           "filterql",
		Short:         "compile filter expressions to and from the wire format",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&schemaPath, "schema", "", "dataset schema file (YAML or JSON)")
	root.PersistentFlags().BoolVar(&platonic, "platonic", false, "keep array[subvar] references alias-addressed")

	check := &cobra.Command{
		Use:   "check <expression>",
		Short: "parse an expression and print its normal form",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := parseArg(args)
			if err != nil {
				return err
			}
			text, err := expr.ToString(tree)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}

	lower := &cobra.Command{
		Use:   "lower <expression>",
		Short: "resolve an expression against a schema and print the wire form",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if schemaPath == "" {
				return fmt.Errorf("lower requires --schema")
			}
			cat, err := catalog.LoadSchema(schemaPath)
			if err != nil {
				return err
			}
			tree, err := parseArg(args)
			if err != nil {
				return err
			}
			lowered, err := resolve.Lower(tree, cat)
			if err != nil {
				return err
			}
			buf, err := expr.Encode(lowered)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(buf))
			return nil
		},
	}

	format := &cobra.Command{
		Use:   "fmt [file]",
		Short: "render a wire expression back to readable text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			buf, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			tree, err := expr.Decode(buf)
			if err != nil {
				return err
			}
			var cat *catalog.Catalog
			if schemaPath != "" {
				cat, err = catalog.LoadSchema(schemaPath)
				if err != nil {
					return err
				}
			}
			text, err := resolve.Prettify(tree, cat)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}

	schema := &cobra.Command{
		Use:   "schema <dataset-url>",
		Short: "fetch dataset metadata and print it as a schema file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base := args[0]
			if !strings.HasSuffix(base, "/") {
				base += "/"
			}
			client := &catalog.Client{Token: token}
			cat, err := client.Fetch(cmd.Context(), base)
			if err != nil {
				return err
			}
			s := catalog.Schema{Base: cat.Base(), Variables: cat.Variables()}
			buf, err := yaml.Marshal(&s)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(buf)
			return err
		},
	}
	schema.Flags().StringVar(&token, "token", "", "bearer token for the dataset service")

	root.AddCommand(check, lower, format, schema)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "filterql:", err)
		os.Exit(1)
	}
}

// parseArg joins the positional arguments so unquoted shell-split
// expressions still parse as one
func parseArg(args []string) (expr.Node, error) {
	text := strings.Join(args, " ")
	if platonic {
		return parser.ParsePlatonic(text)
	}
	return parser.Parse(text)
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 1 && args[0] != "-" {
		return os.ReadFile(args[0])
	}
	return io.ReadAll(cmd.InOrStdin())
}
