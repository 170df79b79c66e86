package main

import (
	"bufio"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sandrolain/xlformula"
	"github.com/sandrolain/xlformula/pkg/types"
)

// batchRequest is one input line of the batch protocol.
type batchRequest struct {
	Formula string          `json:"formula"`
	Vars    json.RawMessage `json:"vars,omitempty"`
}

// batchResponse is written for every request, in order.
type batchResponse struct {
	Value *types.Value `json:"value,omitempty"`
	Kind  string       `json:"kind,omitempty"`
	OK    bool         `json:"ok"`
	Error string       `json:"error,omitempty"`
}

func newBatchCmd(opts *globalOptions) *cobra.Command {
	var ef engineFlags
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Evaluate newline-delimited JSON requests from stdin",
		Long: `Each input line is a JSON object {"formula": "...", "vars": {...}}.
Each output line is {"value": ..., "kind": "...", "ok": true|false} or
{"ok": false, "error": "..."} for a request that could not be read.
Per-request vars are bound on top of the --vars file for that request only.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, err := ef.context()
			if err != nil {
				return err
			}
			eng := ef.engine(opts, ctx)
			enc := json.NewEncoder(cmd.OutOrStdout())

			sc := bufio.NewScanner(cmd.InOrStdin())
			sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
			line := 0
			for sc.Scan() {
				line++
				if len(sc.Bytes()) == 0 {
					continue
				}
				resp := handleRequest(eng, sc.Bytes())
				if resp.Error != "" {
					opts.logger.Warn("batch request rejected", "line", line, "error", resp.Error)
				}
				if err := enc.Encode(resp); err != nil {
					return err
				}
			}
			if err := sc.Err(); err != nil {
				return fmt.Errorf("read requests: %w", err)
			}
			return nil
		},
	}
	ef.register(cmd)
	return cmd
}

// handleRequest evaluates one request line.
func handleRequest(eng *xlformula.Engine, raw []byte) batchResponse {
	var req batchRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return batchResponse{Error: "invalid request JSON: " + err.Error()}
	}
	overrides := map[string]types.Value{}
	if len(req.Vars) > 0 {
		vars, err := parseVars(req.Vars)
		if err != nil {
			return batchResponse{Error: err.Error()}
		}
		vars.Range(func(name string, v types.Value) bool {
			overrides[name] = v
			return true
		})
	}
	res := eng.EvaluateWith(req.Formula, overrides)
	resp := batchResponse{Value: &res.Value, Kind: res.Value.Kind().String(), OK: res.OK()}
	if len(res.ParseErrors) > 0 {
		resp.Error = res.ParseErrors.Error()
	}
	return resp
}
