// Command phenoextract extracts phenotype data for selected subjects and
// fields from a long-format biobank table, decodes it with the showcase
// reference tables and writes narrow (and optionally wide) outputs.
//
// Usage:
//
//	phenoextract --config-file extract.yaml --data-file ukb_long.arrow \
//	    --output-prefix out/ukb_ --output-formats tsv,parquet
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"phenoextract/internal/output"
)

// options holds the parsed command-line flags.
type options struct {
	configFile     string
	dataFile       string
	dictionaryFile string
	codingFile     string
	treeFile       string
	propsFile      string
	outputPrefix   string
	outputFormats  string
	sqlDSN         string
	sqlitePath     string

	verbose   bool
	logFormat string
	validate  bool

	httpRetries int

	metricsBackend string
	metricsJob     string
	pushgatewayURL string
	statsdAddr     string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "phenoextract",
		Short: "Extract and decode phenotype fields from a long-format biobank table",
		Long: `phenoextract filters a long-format (SubjectID, FieldID, InstanceID,
ArrayID, FieldValue) table by subject, field, category, instance and array,
decodes values with the Data Dictionary and Coding tables, and writes a
narrow dataset plus, when the configuration asks for it, a typed wide one.

Inputs may be local paths, http(s):// URLs or s3://bucket/key objects.

Examples:
  # Extract to TSV and Arrow next to the config
  phenoextract --config-file extract.yaml --data-file ukb_long.tsv --output-prefix out/ukb_

  # Only check the configuration
  phenoextract --config-file extract.yaml --data-file x --output-prefix x --validate`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configFile, "config-file", "", "YAML configuration file (required)")
	f.StringVar(&opts.dataFile, "data-file", "", "long-format data file: .tsv, .txt, .arrow or .feather (required)")
	f.StringVar(&opts.dictionaryFile, "dictionary-file", "Data_Dictionary_Showcase.tsv", "Data Dictionary table")
	f.StringVar(&opts.codingFile, "coding-file", "Codings.tsv", "Coding table")
	f.StringVar(&opts.treeFile, "category-tree-file", "13.txt", "category parent/child table")
	f.StringVar(&opts.propsFile, "data-field-prop-file", "1.txt", "field properties table (instanced flag)")
	f.StringVar(&opts.outputPrefix, "output-prefix", "", "prefix for every output file, e.g. out/ukb_ (required)")
	f.StringVar(&opts.outputFormats, "output-formats", "tsv,arrow", "comma-separated output formats: "+formatList())
	f.StringVar(&opts.sqlDSN, "sql-dsn", "", "postgres connection string for postgres output")
	f.StringVar(&opts.sqlitePath, "sqlite-path", "", "database file for sqlite output (default <prefix>extract.db)")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	f.StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")
	f.BoolVar(&opts.validate, "validate", false, "validate the configuration and exit")
	f.IntVar(&opts.httpRetries, "http-retries", 3, "retries for transient http(s) input failures")
	f.StringVar(&opts.metricsBackend, "metrics-backend", "none", "metrics backend: none, pushgateway or datadog")
	f.StringVar(&opts.metricsJob, "metrics-job", "phenoextract", "job label for metrics")
	f.StringVar(&opts.pushgatewayURL, "pushgateway-url", "", "Pushgateway base URL (env PUSHGATEWAY_URL)")
	f.StringVar(&opts.statsdAddr, "statsd-addr", "", "DogStatsD address (env DD_DOGSTATSD_URL)")

	for _, name := range []string{"config-file", "data-file", "output-prefix"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func formatList() string {
	s := ""
	for i, f := range output.Formats {
		if i > 0 {
			s += ", "
		}
		s += string(f)
	}
	return s
}

// loggedError marks an error that has already been written to the run log.
type loggedError struct{ error }

func (e loggedError) Unwrap() error { return e.error }

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var le loggedError
		if !errors.As(err, &le) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
