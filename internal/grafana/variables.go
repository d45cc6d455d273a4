package grafana

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/samber/lo"
)

// LabelValuesQuery is a parsed label_values(metric, label) meta-query.
// Metric is empty for the label_values(label) form.
type LabelValuesQuery struct {
	Metric string
	Label  string
}

var (
	labelValuesPattern = regexp.MustCompile(`label_values\s*\((.*)\)`)
	queryResultPattern = regexp.MustCompile(`query_result\s*\(\s*(.+)\s*\)`)
	labelNamePattern   = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
)

// Substitute replaces ${name}, [[name]] and $name placeholders in expr with
// values. Braced forms are replaced first, and $name only matches when
// followed by a word boundary so $job does not clobber $job_name. Names absent
// from values are left untouched.
func Substitute(expr string, values map[string]string) string {
	if len(values) == 0 || !strings.ContainsAny(expr, "$[") {
		return expr
	}

	names := lo.Keys(values)
	// Longer names first so a shared prefix never wins.
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})

	for _, name := range names {
		value := values[name]
		expr = strings.ReplaceAll(expr, "${"+name+"}", value)
		expr = strings.ReplaceAll(expr, "[["+name+"]]", value)
	}
	for _, name := range names {
		if !strings.Contains(expr, "$"+name) {
			continue
		}
		expr = placeholderPattern(name).ReplaceAllLiteralString(expr, values[name])
	}
	return expr
}

// placeholderPatterns caches the compiled $name pattern per variable name.
var placeholderPatterns sync.Map

func placeholderPattern(name string) *regexp.Regexp {
	if re, ok := placeholderPatterns.Load(name); ok {
		return re.(*regexp.Regexp)
	}
	re, _ := placeholderPatterns.LoadOrStore(name, regexp.MustCompile(`\$`+regexp.QuoteMeta(name)+`\b`))
	return re.(*regexp.Regexp)
}

// ParseLabelValuesQuery recognizes label_values(label),
// label_values(metric, label) and label_values(metric{selector}, label).
// It returns nil when text is not a label_values query.
func ParseLabelValuesQuery(text string) *LabelValuesQuery {
	m := labelValuesPattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	inner := strings.TrimSpace(m[1])
	if inner == "" {
		return nil
	}

	q := &LabelValuesQuery{Label: inner}
	if idx := lastTopLevelComma(inner); idx >= 0 {
		q.Metric = strings.TrimSpace(inner[:idx])
		q.Label = strings.TrimSpace(inner[idx+1:])
	}
	if !labelNamePattern.MatchString(q.Label) {
		return nil
	}
	return q
}

// lastTopLevelComma returns the index of the last comma outside braces,
// parentheses and quotes, or -1.
func lastTopLevelComma(s string) int {
	depth := 0
	var quote rune
	last := -1
	for i, r := range s {
		switch {
		case quote != 0:
			if r == quote && (i == 0 || s[i-1] != '\\') {
				quote = 0
			}
		case r == '"' || r == '\'' || r == '`':
			quote = r
		case r == '{' || r == '(' || r == '[':
			depth++
		case r == '}' || r == ')' || r == ']':
			depth--
		case r == ',' && depth == 0:
			last = i
		}
	}
	return last
}

// ParseQueryResultQuery extracts expr from query_result(expr).
func ParseQueryResultQuery(text string) (string, bool) {
	m := queryResultPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	expr := strings.TrimSpace(m[1])
	return expr, expr != ""
}

// DefaultValues picks an initial value for every variable: the declared
// current value, else the first option, else the query text of a constant,
// else "".
func DefaultValues(vars []Variable) map[string]string {
	values := make(map[string]string, len(vars))
	for _, v := range vars {
		switch {
		case v.HasCurrent && v.Current != "":
			values[v.Name] = v.Current
		case len(v.Options) > 0:
			values[v.Name] = v.Options[0]
		case v.Type == VariableConstant:
			values[v.Name] = v.Query
		default:
			values[v.Name] = ""
		}
	}
	return values
}

// FilterOptions applies a Grafana variable regex to discovered options. The
// regex may be written as /pattern/ or /pattern/i. When it has a capture
// group, the group named "value" or else the first group becomes the option.
// Results are deduplicated in first-seen order.
func FilterOptions(options []string, regex string) ([]string, error) {
	if regex == "" {
		return options, nil
	}
	pattern := regex
	if strings.HasPrefix(pattern, "/") {
		if end := strings.LastIndex(pattern, "/"); end > 0 {
			flags := pattern[end+1:]
			pattern = pattern[1:end]
			if strings.Contains(flags, "i") {
				pattern = "(?i)" + pattern
			}
		}
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid variable regex %q: %w", regex, err)
	}

	group := 1
	if idx := re.SubexpIndex("value"); idx > 0 {
		group = idx
	}

	out := make([]string, 0, len(options))
	for _, opt := range options {
		m := re.FindStringSubmatch(opt)
		if m == nil {
			continue
		}
		if len(m) > group && m[group] != "" {
			out = append(out, m[group])
		} else {
			out = append(out, opt)
		}
	}
	return lo.Uniq(out), nil
}

// QueryResultOption renders one instant-query sample the way Grafana lists
// query_result options: name{k="v"} value timestamp.
func QueryResultOption(labels map[string]string, value float64, ts int64) string {
	var b strings.Builder
	b.WriteString(labels["__name__"])
	keys := lo.Filter(lo.Keys(labels), func(k string, _ int) bool { return k != "__name__" })
	sort.Strings(keys)
	b.WriteString("{")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, "%s=%q", k, labels[k])
	}
	b.WriteString("} ")
	b.WriteString(strconv.FormatFloat(value, 'f', -1, 64))
	b.WriteString(" ")
	b.WriteString(strconv.FormatInt(ts*1000, 10))
	return b.String()
}

// scrapeInterval is the scrape interval assumed for $__rate_interval.
const scrapeInterval = 15

// BuiltinValues returns Grafana's global interval variables for a query
// step and range, both in seconds.
func BuiltinValues(stepSeconds, rangeSeconds int64) map[string]string {
	rate := stepSeconds + scrapeInterval
	if rate < 4*scrapeInterval {
		rate = 4 * scrapeInterval
	}
	return map[string]string{
		"__interval":      promDuration(stepSeconds),
		"__interval_ms":   strconv.FormatInt(stepSeconds*1000, 10),
		"__range":         promDuration(rangeSeconds),
		"__range_s":       strconv.FormatInt(rangeSeconds, 10),
		"__range_ms":      strconv.FormatInt(rangeSeconds*1000, 10),
		"__rate_interval": promDuration(rate),
	}
}

// promDuration formats seconds in the largest whole PromQL unit.
func promDuration(seconds int64) string {
	switch {
	case seconds > 0 && seconds%86400 == 0:
		return fmt.Sprintf("%dd", seconds/86400)
	case seconds > 0 && seconds%3600 == 0:
		return fmt.Sprintf("%dh", seconds/3600)
	case seconds > 0 && seconds%60 == 0:
		return fmt.Sprintf("%dm", seconds/60)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
