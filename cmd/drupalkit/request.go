package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/drupalkit/drupalkit/pkg/httpclient"
)

type requestOptions struct {
	headers   []string
	data      string
	anonymous bool
	skipHooks bool
	raw       bool
}

func newRequestCmd(a *app) *cobra.Command {
	opts := &requestOptions{}

	cmd := &cobra.Command{
		Use:   "request METHOD PATH",
		Short: "Send a request to the site",
		Long: `Send a request to the configured Drupal site.

PATH is resolved against the base URL. The configured auth strategy
decorates the request unless --anonymous is given.`,
		Example: `  drupalkit request GET /jsonapi/node/article
  drupalkit request POST /api/items --data '{"title":"x"}' --header Content-Type=application/json
  drupalkit request GET /user/login_status?_format=json --anonymous`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd, a, opts, strings.ToUpper(args[0]), args[1])
		},
	}

	cmd.Flags().StringArrayVarP(&opts.headers, "header", "H", nil, "Request header as name=value (repeatable)")
	cmd.Flags().StringVar(&opts.data, "data", "", "Request body")
	cmd.Flags().BoolVar(&opts.anonymous, "anonymous", false, "Do not authenticate the request")
	cmd.Flags().BoolVar(&opts.skipHooks, "skip-hooks", false, "Bypass all request hooks, including auth")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "Print the body without reformatting")

	return cmd
}

func runRequest(cmd *cobra.Command, a *app, opts *requestOptions, method, path string) error {
	reqOpts, err := opts.requestOptions()
	if err != nil {
		return err
	}

	client, err := a.newClient()
	if err != nil {
		return err
	}

	var body io.Reader
	if opts.data != "" {
		body = strings.NewReader(opts.data)
	}

	resp, err := client.Execute(cmd.Context(), method, path, body, reqOpts...)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	out := cmd.OutOrStdout()
	if !a.quiet {
		printer := pterm.Success
		if !httpclient.IsSuccess(resp.StatusCode) {
			printer = pterm.Warning
		}
		printer.WithWriter(cmd.ErrOrStderr()).Println(resp.Status)
	}

	if !opts.raw {
		data = prettyJSON(data, resp.Header.Get("Content-Type"))
	}
	if _, err := out.Write(data); err != nil {
		return err
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		fmt.Fprintln(out)
	}

	if !httpclient.IsSuccess(resp.StatusCode) {
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}
	return nil
}

// requestOptions converts the command-line flags to request options.
func (o *requestOptions) requestOptions() ([]httpclient.RequestOption, error) {
	var opts []httpclient.RequestOption
	for _, h := range o.headers {
		name, value, ok := strings.Cut(h, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid header %q, expected name=value", h)
		}
		opts = append(opts, httpclient.Header(http.CanonicalHeaderKey(strings.TrimSpace(name)), value))
	}
	if o.anonymous {
		opts = append(opts, httpclient.Anonymous())
	}
	if o.skipHooks {
		opts = append(opts, httpclient.SkipHooks())
	}
	return opts, nil
}

// prettyJSON indents JSON bodies and returns anything else unchanged.
func prettyJSON(data []byte, contentType string) []byte {
	if !strings.Contains(contentType, "json") {
		return data
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return data
	}
	return buf.Bytes()
}
