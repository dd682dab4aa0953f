package cmd

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func addListFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("search", "s", "", "search text")
	cmd.Flags().String("ordering", "", "ordering field, prefix with - for descending order")
	cmd.Flags().Int("page", 0, "page number")
	cmd.Flags().Int("page-size", 0, "page size")
}

// listQuery builds list parameters from the flags added by addListFlags.
func listQuery(cmd *cobra.Command) url.Values {
	q := url.Values{}

	for _, name := range []string{"search", "ordering"} {
		if v, _ := cmd.Flags().GetString(name); strings.TrimSpace(v) != "" {
			q.Set(name, strings.TrimSpace(v))
		}
	}
	for flag, param := range map[string]string{"page": "page", "page-size": "page_size"} {
		if v, _ := cmd.Flags().GetInt(flag); v > 0 {
			q.Set(param, strconv.Itoa(v))
		}
	}

	return q
}

func addYesFlag(cmd *cobra.Command) {
	cmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
}

func approved(cmd *cobra.Command) bool {
	yes, _ := cmd.Flags().GetBool("yes")
	return yes
}

// changed returns the string flag value only when the user set it.
func changed(flags *pflag.FlagSet, name string) (string, bool) {
	if !flags.Changed(name) {
		return "", false
	}
	v, _ := flags.GetString(name)
	return v, true
}

func anyChanged(flags *pflag.FlagSet, names ...string) bool {
	for _, name := range names {
		if flags.Changed(name) {
			return true
		}
	}
	return false
}
