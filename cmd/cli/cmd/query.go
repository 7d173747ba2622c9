package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hierarchy-analysis/internal/analysis"
)

var (
	queryClasspath classpathFlags
	queryJSON      bool
	directOnly     bool
)

// queryCmd groups one-shot queries against a freshly built hierarchy.
var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Answer a subtype query",
	Long: `Build the hierarchy and answer a single query.

Class names may be slashed (java/lang/String) or dotted (java.lang.String).
subtype and meet also accept field signatures such as [Ljava/lang/String; or [I.
A query whose answer depends on a missing class fails and lists the missing classes.`,
}

var querySubtypeCmd = &cobra.Command{
	Use:   "subtype <sub> <super>",
	Short: "Report whether sub is a subtype of super",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withQuerySession(cmd, func(s *analysis.Session) (interface{}, error) {
			return s.IsSubtype(args[0], args[1])
		})
	},
}

var queryMeetCmd = &cobra.Command{
	Use:   "meet <a> <b>",
	Short: "Print the first common superclass of two types",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withQuerySession(cmd, func(s *analysis.Session) (interface{}, error) {
			return s.FirstCommonSuperclass(args[0], args[1])
		})
	},
}

var querySubtypesCmd = &cobra.Command{
	Use:   "subtypes <class>",
	Short: "List the known subtypes of a class",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withQuerySession(cmd, func(s *analysis.Session) (interface{}, error) {
			return s.Subtypes(args[0], directOnly)
		})
	},
}

var querySupertypesCmd = &cobra.Command{
	Use:   "supertypes <class>",
	Short: "List a class and all of its supertypes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withQuerySession(cmd, func(s *analysis.Session) (interface{}, error) {
			return s.Supertypes(args[0])
		})
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.AddCommand(querySubtypeCmd, queryMeetCmd, querySubtypesCmd, querySupertypesCmd)

	queryClasspath.register(queryCmd, true)
	queryCmd.PersistentFlags().BoolVar(&queryJSON, "json", false, "Print the result as JSON")
	querySubtypesCmd.Flags().BoolVar(&directOnly, "direct", false, "Only direct subtypes")
}

func withQuerySession(cmd *cobra.Command, query func(*analysis.Session) (interface{}, error)) error {
	queryClasspath.apply(cmd, &cfg.Analysis)

	store, err := openStorage(cfg, needsStorage(cfg.Analysis.Classpath, cfg.Analysis.AuxClasspath))
	if err != nil {
		return err
	}
	session, err := openSession(cmd.Context(), cfg, store)
	if err != nil {
		return err
	}
	defer session.Close()

	result, err := query(session)
	if err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), result)
}

func printResult(out io.Writer, result interface{}) error {
	if queryJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	switch v := result.(type) {
	case []string:
		for _, name := range v {
			fmt.Fprintln(out, name)
		}
	case *analysis.SupertypeResult:
		for _, name := range v.Supertypes {
			fmt.Fprintln(out, name)
		}
		for _, name := range v.Missing {
			fmt.Fprintf(out, "missing: %s\n", name)
		}
	default:
		fmt.Fprintln(out, v)
	}
	return nil
}
