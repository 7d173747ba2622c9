package cmd

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hierarchy-analysis/internal/analysis"
	"github.com/hierarchy-analysis/internal/mock"
	"github.com/hierarchy-analysis/pkg/config"
	"github.com/hierarchy-analysis/pkg/utils"
)

func TestClasspathFlags_Apply(t *testing.T) {
	var f classpathFlags
	cmd := &cobra.Command{Use: "test"}
	f.register(cmd, false)
	require.NoError(t, cmd.ParseFlags([]string{"--classpath", "a.jar,b", "--app-prefix", "com/acme/", "--no-cache"}))

	a := config.AnalysisConfig{
		Classpath:    []string{"from-config"},
		AuxClasspath: []string{"rt.jar"},
	}
	f.apply(cmd, &a)

	assert.Equal(t, []string{"a.jar", "b"}, a.Classpath)
	assert.Equal(t, []string{"rt.jar"}, a.AuxClasspath)
	assert.Equal(t, []string{"com/acme/"}, a.ApplicationPrefixes)
	assert.True(t, a.DisableCache)
}

func TestNeedsStorage(t *testing.T) {
	assert.False(t, needsStorage([]string{"a.jar"}, nil))
	assert.True(t, needsStorage([]string{"a.jar"}, []string{"storage:jdk/"}))
}

func TestOpenSession_NoClasspath(t *testing.T) {
	_, err := openSession(context.Background(), &config.Config{}, nil)
	assert.ErrorContains(t, err, "no classpath")
}

func TestPrintResult(t *testing.T) {
	tests := []struct {
		name     string
		result   interface{}
		json     bool
		expected string
	}{
		{"bool", true, false, "true\n"},
		{"names", []string{"a/B", "a/C"}, false, "a/B\na/C\n"},
		{
			"supertypes",
			&analysis.SupertypeResult{Class: "a/B", Supertypes: []string{"a/B", "java/lang/Object"}, Missing: []string{"x/Y"}},
			false,
			"a/B\njava/lang/Object\nmissing: x/Y\n",
		},
		{"json", "java/lang/Object", true, "\"java/lang/Object\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queryJSON = tt.json
			defer func() { queryJSON = false }()

			var buf bytes.Buffer
			require.NoError(t, printResult(&buf, tt.result))
			assert.Equal(t, tt.expected, buf.String())
		})
	}
}

func TestUploadOutputs(t *testing.T) {
	cfg = &config.Config{Storage: config.StorageConfig{Prefix: "reports"}}
	defer func() { cfg = nil }()

	store := &mock.MockStorage{}
	store.ExpectUploadFile("reports/run-1/run-1-report.json", "/tmp/out/run-1-report.json", nil)
	store.ExpectAnyGetURL("file:///reports/run-1/run-1-report.json")

	err := uploadOutputs(context.Background(), store, "run-1", []string{"/tmp/out/run-1-report.json"}, &utils.NullLogger{})
	require.NoError(t, err)
	store.AssertExpectations(t)

	failing := &mock.MockStorage{}
	failing.ExpectAnyUploadFile(errors.New("quota"))
	err = uploadOutputs(context.Background(), failing, "run-1", []string{"/tmp/x.json"}, &utils.NullLogger{})
	assert.ErrorContains(t, err, "quota")
}
