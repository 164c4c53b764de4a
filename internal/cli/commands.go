package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saturnines/storefront-dispatch/pkg/dispatch"
	"github.com/saturnines/storefront-dispatch/pkg/encoding"
	"github.com/saturnines/storefront-dispatch/pkg/target"
	"github.com/saturnines/storefront-dispatch/pkg/transport"
	"github.com/saturnines/storefront-dispatch/pkg/transport/graphql"
)

func newGetCommand(flags *globalFlags) *cobra.Command {
	var (
		query  []string
		method string
	)

	cmd := &cobra.Command{
		Use:   "get PATH",
		Short: "Issue a GET, with optional query parameters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := flags.setup(cmd)
			if err != nil {
				return err
			}

			// keep the order the flags were given in
			params := encoding.Params{}
			for _, q := range query {
				k, v, ok := strings.Cut(q, "=")
				if !ok {
					return fmt.Errorf("invalid --query %q, expected key=value", q)
				}
				params = params.Add(k, v)
			}

			res, err := e.dispatcher.Get(cmd.Context(), args[0], e.target, params, &dispatch.Config{
				Headers: e.headers,
				Method:  method,
			})
			return e.print(res, err)
		},
	}
	cmd.Flags().StringArrayVarP(&query, "query", "q", nil, "query parameter key=value (repeatable, ordered)")
	cmd.Flags().StringVar(&method, "method", "", "override the HTTP method")
	return cmd
}

func newBodyCommand(flags *globalFlags, verb string) *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   verb + " PATH",
		Short: fmt.Sprintf("Issue a %s with a JSON body", strings.ToUpper(verb)),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := flags.setup(cmd)
			if err != nil {
				return err
			}

			payload, err := readJSON(data)
			if err != nil {
				return err
			}

			var res *transport.Result
			if verb == "put" {
				res, err = e.dispatcher.Put(cmd.Context(), args[0], e.target, payload)
			} else {
				res, err = e.dispatcher.Post(cmd.Context(), args[0], e.target, payload)
			}
			return e.print(res, err)
		},
	}
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON body, or @file")
	return cmd
}

func newDeleteCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete PATH",
		Short: "Issue a DELETE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := flags.setup(cmd)
			if err != nil {
				return err
			}
			res, err := e.dispatcher.Delete(cmd.Context(), args[0], e.target)
			return e.print(res, err)
		},
	}
}

func newUploadCommand(flags *globalFlags) *cobra.Command {
	var (
		files  []string
		fields []string
	)

	cmd := &cobra.Command{
		Use:   "upload PATH",
		Short: "Upload files to the B2B service as multipart form data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := flags.setup(cmd)
			if err != nil {
				return err
			}

			form := encoding.NewForm()
			for _, f := range fields {
				k, v, ok := strings.Cut(f, "=")
				if !ok {
					return fmt.Errorf("invalid --field %q, expected name=value", f)
				}
				form.AddField(k, v)
			}
			for _, f := range files {
				name, path, ok := strings.Cut(f, "=")
				if !ok {
					return fmt.Errorf("invalid --file %q, expected field=path", f)
				}
				if err := addFile(form, name, path); err != nil {
					return err
				}
			}

			res, err := e.dispatcher.FileUpload(cmd.Context(), args[0], form, &dispatch.Config{Headers: e.headers})
			return e.print(res, err)
		},
	}
	cmd.Flags().StringArrayVarP(&files, "file", "F", nil, "file part field=path (repeatable)")
	cmd.Flags().StringArrayVar(&fields, "field", nil, "text part name=value (repeatable)")
	return cmd
}

func addFile(form *encoding.Form, field, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return form.AddFile(field, filepath.Base(path), f)
}

func newGraphQLCommand(flags *globalFlags) *cobra.Command {
	var (
		query     string
		variables string
		operation string
		suppress  bool
	)

	cmd := &cobra.Command{
		Use:   "graphql",
		Short: "Run a GraphQL operation against a GraphQL target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := flags.setup(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("target") {
				e.target = target.B2BGraphql
			}

			q, err := readArg(query)
			if err != nil {
				return err
			}
			payload := graphql.Payload{Query: q, OperationName: operation}
			if variables != "" {
				raw, err := readArg(variables)
				if err != nil {
					return err
				}
				if err := json.Unmarshal([]byte(raw), &payload.Variables); err != nil {
					return fmt.Errorf("invalid --variables: %w", err)
				}
			}

			res, err := e.dispatcher.GraphQL(cmd.Context(), e.target, payload, e.headers, suppress)
			return e.print(res, err)
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "GraphQL document, or @file")
	cmd.Flags().StringVar(&variables, "variables", "", "variables as a JSON object, or @file")
	cmd.Flags().StringVar(&operation, "operation", "", "operation name")
	cmd.Flags().BoolVar(&suppress, "suppress-errors", false, "skip the transport's default error reporting")
	_ = cmd.MarkFlagRequired("query")
	return cmd
}

func (e *env) print(res *transport.Result, err error) error {
	if err != nil {
		return err
	}
	if res == nil || len(res.Data) == 0 {
		return nil
	}

	var pretty any
	if err := res.Decode(&pretty); err != nil {
		return err
	}
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	return enc.Encode(pretty)
}

// readArg returns s, or the contents of the file when s is "@path"
func readArg(s string) (string, error) {
	if path, ok := strings.CutPrefix(s, "@"); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return s, nil
}

func readJSON(s string) (any, error) {
	if s == "" {
		return nil, nil
	}
	raw, err := readArg(s)
	if err != nil {
		return nil, err
	}
	if !json.Valid([]byte(raw)) {
		return nil, fmt.Errorf("--data is not valid JSON")
	}
	return json.RawMessage(raw), nil
}
