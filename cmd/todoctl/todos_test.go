package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/brizzai/todoctl/internal/requester"
	"gopkg.in/yaml.v3"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{in: "table", want: OutputTable},
		{in: "json", want: OutputJSON},
		{in: "yaml", want: OutputYAML},
		{in: "xml", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseOutputFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseID(t *testing.T) {
	id, err := parseID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, in := range []string{"", "abc", "0", "-3"} {
		_, err := parseID(in)
		assert.Error(t, err, in)
	}
}

func TestRenderTodos(t *testing.T) {
	todos := []requester.Todo{
		{ID: int64Ptr(2), Description: "eggs"},
		{ID: int64Ptr(1), Description: "milk", Done: true},
	}
	want := []todoView{
		{ID: 1, Description: "milk", Done: true},
		{ID: 2, Description: "eggs"},
	}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, renderTodos(&buf, OutputJSON, todos))

		var got []todoView
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, want, got)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, renderTodos(&buf, OutputYAML, todos))
		assert.Contains(t, buf.String(), "description: milk")

		var got []todoView
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, want, got)
	})

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, renderTodos(&buf, OutputTable, todos))
		out := buf.String()
		assert.Contains(t, out, "DESCRIPTION")
		require.Contains(t, out, "milk")
		require.Contains(t, out, "eggs")
		assert.Less(t, strings.Index(out, "milk"), strings.Index(out, "eggs"))
	})
}

func TestToViews_SortsByID(t *testing.T) {
	views := toViews([]requester.Todo{
		{ID: int64Ptr(30), Description: "c"},
		{ID: int64Ptr(4), Description: "a"},
		{ID: int64Ptr(12), Description: "b"},
	})

	got := make([]int64, 0, len(views))
	for _, v := range views {
		got = append(got, v.ID)
	}
	assert.Equal(t, []int64{4, 12, 30}, got)
}

func TestFormatDetail(t *testing.T) {
	assert.Equal(t, "too short, too common", formatDetail([]any{"too short", "too common"}))
	assert.Equal(t, "oops", formatDetail("oops"))
}
