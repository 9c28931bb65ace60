package pipeline

import (
	"slices"
	"strings"
)

// PostMatchPrefix marks working columns derived from the match's own outcome.
// They feed the rolling state and are dropped before the schema is final.
const PostMatchPrefix = "PostMatch_"

var sides = [2]string{"Home", "Away"}

// Per-side feature suffixes in output order. Each expands to Home_<x>, Away_<x>.
var featureSuffixes = []string{
	"Elo",
	"Att_Strength",
	"Def_Weakness",
	"FIFA_Ova",
	"Market_Value",
	"xG_Avg_L5",
	"Streak_L5",
	"H2H_L3",
	"Pressure_Avg_L5",
	"Goal_Diff_L5",
	"Rest_Days",
	"Field_Tilt_L5",
	"PDO_L5",
	"PPDA_Proxy_L5",
	"Market_Wisdom",
	"Dominance",
}

var postMatchSuffixes = []string{
	"xG",
	"Points",
	"Pressure",
	"Goal_Diff",
	"Field_Tilt",
	"PDO",
	"PPDA",
}

// IdentityColumns lead every exported record, in this order.
var IdentityColumns = []string{
	"Div", "Date", "Season", "HomeTeam", "AwayTeam", "HomeID", "AwayID",
	"FTHG", "FTAG", "FTR", "B365H", "B365D", "B365A",
}

func sideCol(side, suffix string) string { return side + "_" + suffix }

func postCol(side, suffix string) string { return PostMatchPrefix + side + "_" + suffix }

// workingColumns is every numeric column the forward pass fills, pre-match
// features and post-match helpers alike.
func workingColumns() []string {
	cols := make([]string, 0, 2*(len(featureSuffixes)+len(postMatchSuffixes)))
	for _, s := range featureSuffixes {
		for _, side := range sides {
			cols = append(cols, sideCol(side, s))
		}
	}
	for _, s := range postMatchSuffixes {
		for _, side := range sides {
			cols = append(cols, postCol(side, s))
		}
	}
	return cols
}

// dropLeaky filters the working set down to columns safe to publish.
func dropLeaky(cols []string) []string {
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		if strings.HasPrefix(c, PostMatchPrefix) {
			continue
		}
		out = append(out, c)
	}
	return out
}

type schema struct {
	columns []string
	index   map[string]int
}

func newSchema(cols []string) *schema {
	idx := make(map[string]int, len(cols))
	for i, c := range cols {
		idx[c] = i
	}
	return &schema{columns: cols, index: idx}
}

// FeatureColumns returns the published numeric columns in output order.
func FeatureColumns() []string {
	return dropLeaky(workingColumns())
}

// FeatureSuffixes returns the per-side feature names without the side prefix.
func FeatureSuffixes() []string {
	return slices.Clone(featureSuffixes)
}
