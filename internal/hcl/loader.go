package hcl

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/testrig/internal/ctxlog"
	"github.com/vk/testrig/internal/fsutil"
	"github.com/vk/testrig/internal/model"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// FileExtension is the suffix of test-case files found in directories.
const FileExtension = ".hcl"

// Loader reads test cases from HCL files.
type Loader struct {
	parser  *hclparse.Parser
	evalCtx *hcl.EvalContext
}

// NewLoader returns a loader whose expressions can read the process
// environment as env.NAME and call a small set of string and encoding
// functions.
func NewLoader() *Loader {
	return &Loader{
		parser:  hclparse.NewParser(),
		evalCtx: newEvalContext(os.Environ()),
	}
}

func newEvalContext(environ []string) *hcl.EvalContext {
	env := make(map[string]cty.Value, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			env[k] = cty.StringVal(v)
		}
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(env),
		},
		Functions: map[string]function.Function{
			"upper":      stdlib.UpperFunc,
			"lower":      stdlib.LowerFunc,
			"format":     stdlib.FormatFunc,
			"jsonencode": stdlib.JSONEncodeFunc,
			"jsondecode": stdlib.JSONDecodeFunc,
		},
	}
}

// Load reads every path. Directories are searched recursively for files
// with FileExtension. Test-case names must be unique across all files.
func (l *Loader) Load(ctx context.Context, paths ...string) ([]*model.TestCase, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := expand(paths)
	if err != nil {
		return nil, err
	}

	var cases []*model.TestCase
	seen := make(map[string]string)
	for _, path := range files {
		loaded, err := l.LoadFile(ctx, path)
		if err != nil {
			return nil, err
		}
		for _, tc := range loaded {
			if prev, dup := seen[tc.Name]; dup {
				return nil, fmt.Errorf("duplicate test case %q in %s (first defined in %s)", tc.Name, path, prev)
			}
			seen[tc.Name] = path
			cases = append(cases, tc)
		}
	}
	logger.Debug("Loaded test cases.", "files", len(files), "cases", len(cases))
	return cases, nil
}

// LoadFile parses and decodes a single test-case file.
func (l *Loader) LoadFile(ctx context.Context, path string) ([]*model.TestCase, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Decoding test-case file.", "path", path)

	parsed, diags := l.parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %s", path, diags.Error())
	}
	return l.decode(path, parsed.Body)
}

// LoadSource decodes test cases from in-memory HCL; filename is used in
// diagnostics only.
func (l *Loader) LoadSource(src []byte, filename string) ([]*model.TestCase, error) {
	parsed, diags := l.parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %s", filename, diags.Error())
	}
	return l.decode(filename, parsed.Body)
}

func (l *Loader) decode(path string, body hcl.Body) ([]*model.TestCase, error) {
	var f file
	if diags := gohcl.DecodeBody(body, l.evalCtx, &f); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %s", path, diags.Error())
	}

	cases, err := translate(&f)
	if err != nil {
		return nil, fmt.Errorf("invalid test case in %s: %w", path, err)
	}
	for _, tc := range cases {
		if err := tc.Validate(); err != nil {
			return nil, fmt.Errorf("invalid test case in %s: %w", path, err)
		}
	}
	return cases, nil
}

func expand(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		found, err := fsutil.FindFilesByExtension(p, FileExtension)
		if err != nil {
			return nil, fmt.Errorf("failed to search %s: %w", p, err)
		}
		files = append(files, found...)
	}
	return files, nil
}
