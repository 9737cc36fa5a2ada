package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/graphbridge/internal/bridge"
	"github.com/vk/graphbridge/internal/bridgeerr"
	"github.com/vk/graphbridge/internal/category"
	"github.com/vk/graphbridge/internal/marker"
	"github.com/vk/graphbridge/internal/menupath"
	"github.com/vk/graphbridge/internal/schema"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name      string
		args      []string
		wantMode  Mode
		wantPaths []string
		wantPort  int
		wantExit  bool
		wantCode  int
	}{
		{name: "defaults", args: nil, wantMode: ModeTree},
		{name: "positional and flag paths", args: []string{"-manifest", "a.hcl", "-manifest", "dir", "b.hcl"}, wantMode: ModeTree, wantPaths: []string{"a.hcl", "dir", "b.hcl"}},
		{name: "search", args: []string{"-search", "lerp"}, wantMode: ModeSearch},
		{name: "dump", args: []string{"-dump"}, wantMode: ModeDump},
		{name: "serve keeps port", args: []string{"-serve", "-http-port", "9000"}, wantMode: ModeServe, wantPort: 9000},
		{name: "port ignored outside serve", args: []string{"-http-port", "9000"}, wantMode: ModeTree},
		{name: "help", args: []string{"-h"}, wantExit: true},
		{name: "unknown flag", args: []string{"-nope"}, wantCode: 2},
		{name: "two modes", args: []string{"-dump", "-serve"}, wantCode: 2},
		{name: "bad log level", args: []string{"-log-level", "loud"}, wantCode: 2},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			opts, exit, err := Parse(tc.args, out)
			if tc.wantCode != 0 {
				var exitErr *ExitError
				require.ErrorAs(t, err, &exitErr)
				assert.Equal(t, tc.wantCode, exitErr.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantExit, exit)
			if tc.wantExit {
				assert.Contains(t, out.String(), "Usage:")
				return
			}
			assert.Equal(t, tc.wantMode, opts.Mode)
			assert.Equal(t, tc.wantPaths, opts.Config.ManifestPaths)
			assert.Equal(t, tc.wantPort, opts.Config.HTTPPort)
		})
	}
}

func TestWriteTree(t *testing.T) {
	descs := []*schema.NodeDescriptor{
		{ID: "Math.Add", MenuPath: "Math/Add", Path: menupath.MustParse("Math/Add"), DisplayName: "Add", Metadata: schema.Metadata{Searchable: true}},
		{ID: "Math.Lerp", MenuPath: "Math/Interpolation/Lerp", Path: menupath.MustParse("Math/Interpolation/Lerp"), DisplayName: "Lerp", Metadata: schema.Metadata{Searchable: true}},
	}
	idx := category.Build(descs, []marker.Category{{Path: "Math"}})

	out := &bytes.Buffer{}
	WriteTree(out, idx)
	assert.Equal(t, "Math/\n  Add (Math.Add)\n  Interpolation/\n    Lerp (Math.Lerp)\n", out.String())
}

func TestWriteReport(t *testing.T) {
	b, _ := bridge.SetupBridgeTest(t, &bridge.Config{})
	report, err := b.Rebuild(context.Background())
	require.NoError(t, err)
	report.Validation = append(report.Validation, &bridgeerr.ValidationError{Member: "X.Y", Rule: bridgeerr.RuleInvalidRange, Detail: "min > max"})
	report.Emission = errors.New("emit 'X.Z': boom")

	out := &bytes.Buffer{}
	WriteReport(out, report)
	assert.Contains(t, out.String(), "error: validation: member 'X.Y': invalid_range: min > max\n")
	assert.Contains(t, out.String(), "error: emit 'X.Z': boom\n")
	assert.Contains(t, out.String(), "15 descriptors, 15 adapters, 2 errors\n")
}
