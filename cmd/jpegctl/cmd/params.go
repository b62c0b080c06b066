package cmd

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jpfielding/libjpeg.go/pkg/jpeg"
	"github.com/jpfielding/libjpeg.go/pkg/util"
)

// NewParamsCmd creates the params cobra command
func NewParamsCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "params",
		Short: "extract frame parameters from a jpeg stream",
		Long:  "walks the marker structure of a jpeg stream and prints rows, columns, components and precision without decoding",
		RunE: func(cmd *cobra.Command, args []string) error {
			uri, _ := cmd.Flags().GetString("uri")
			if uri == "" && len(args) > 0 {
				uri = args[0]
			}
			data, err := readURI(ctx, cmd, uri)
			if err != nil {
				return err
			}

			p, st := jpeg.GetParametersWithStatus(data)
			out := struct {
				Fingerprint string `json:"fingerprint"`
				Rows        uint32 `json:"rows"`
				Columns     uint32 `json:"columns"`
				Components  uint8  `json:"components"`
				Precision   uint8  `json:"precision"`
				FrameSize   int    `json:"frameSize"`
				Status      string `json:"status"`
			}{
				Fingerprint: util.Fingerprint(data),
				Rows:        p.Rows,
				Columns:     p.Columns,
				Components:  p.Components,
				Precision:   p.Precision,
				FrameSize:   p.FrameSize(),
				Status:      st.String(),
			}

			switch format, _ := cmd.Flags().GetString("format"); format {
			case "text":
				fmt.Printf("fingerprint: %s\n", out.Fingerprint)
				fmt.Printf("rows: %d\ncolumns: %d\ncomponents: %d\nprecision: %d\n", p.Rows, p.Columns, p.Components, p.Precision)
				fmt.Printf("frame size: %d\nstatus: %s\n", out.FrameSize, out.Status)
			default:
				j, _ := json.Marshal(out)
				os.Stdout.Write(j)
			}
			if !st.OK() {
				return fmt.Errorf("parameter extraction failed: %s", st)
			}
			return nil
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringP("uri", "u", "", "jpeg stream to inspect (file path, - for stdin, or http url)")
	pf.StringP("format", "f", "json", "output format (text|json)")
	pf.Bool("verbose", false, "dump http request/response headers")
	return cmd
}

// readURI loads a stream from a file path, stdin (-) or an http url.
func readURI(ctx context.Context, cmd *cobra.Command, uri string) ([]byte, error) {
	if uri == "" {
		return nil, fmt.Errorf("uri is required. Use --uri flag or provide as argument")
	}
	uri = strings.TrimPrefix(uri, "file://")
	var in io.Reader
	switch {
	case uri == "-":
		in = os.Stdin
	case strings.HasPrefix(uri, "http"):
		// TODO make this a param
		cl := &http.Client{
			Transport: &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}},
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %v", err)
		}
		resp, err := cl.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to download: %v", err)
		}
		verbose, _ := cmd.Flags().GetBool("verbose")
		if verbose {
			reqDump, _ := httputil.DumpRequest(req, true)
			os.Stderr.Write(reqDump)
			resDump, _ := httputil.DumpResponse(resp, false)
			os.Stderr.Write(resDump)
		}
		in = resp.Body
		defer resp.Body.Close()
	default:
		f, err := os.Open(uri)
		if err != nil {
			return nil, fmt.Errorf("failed to open file: %v", err)
		}
		in = f
		defer f.Close()
	}
	return io.ReadAll(in)
}
