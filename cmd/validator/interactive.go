package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"metadata-validator/internal/processor"
	"metadata-validator/internal/scoring"
	"metadata-validator/internal/search"
	"metadata-validator/internal/service"
)

const helpText = `Commands:
  <query>                        search loaded metadata
  /load <kind> <path>            load a glossary, dictionary, policy or sample file
  /type <types>                  restrict search to field,rule,section,domain,column (empty clears)
  /compare <kind> <path>         grade a stored dataset against a reference workbook
  /score <pct> <type> <sens>     compute a match score, e.g. /score 80 true false
  /summary                       summarize the loaded policy
  /export                        write the store to the export database
  exit                           quit`

// session holds the state of one interactive run
type session struct {
	svc   *service.Service
	out   io.Writer
	types []string
}

func runInteractiveMode(ctx context.Context, svc *service.Service, in io.Reader) {
	s := &session{svc: svc, out: os.Stdout}
	scanner := bufio.NewScanner(in)

	fmt.Fprintln(s.out, "Metadata Validator - search loaded metadata (type /help for commands, 'exit' to quit)")
	for {
		fmt.Fprint(s.out, "\n> ")
		if !scanner.Scan() {
			break
		}
		if !s.handle(ctx, scanner.Text()) {
			break
		}
	}
}

// handle runs one input line and reports whether the session continues
func (s *session) handle(ctx context.Context, input string) bool {
	input = strings.TrimSpace(input)
	lower := strings.ToLower(input)
	if lower == "exit" || lower == "quit" {
		return false
	}
	if input == "" {
		return true
	}
	if !strings.HasPrefix(input, "/") {
		if err := s.search(input); err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
		}
		return true
	}

	cmd, args, _ := strings.Cut(input, " ")
	args = strings.TrimSpace(args)

	var err error
	switch strings.ToLower(cmd) {
	case "/help":
		fmt.Fprintln(s.out, helpText)
	case "/load":
		err = s.load(args)
	case "/type":
		s.types = splitList(args)
		if len(s.types) == 0 {
			fmt.Fprintln(s.out, "Type filter cleared")
		} else {
			fmt.Fprintf(s.out, "Type filter set to: %s\n", strings.Join(s.types, ", "))
		}
	case "/compare":
		err = s.compare(ctx, args)
	case "/score":
		err = s.score(args)
	case "/summary":
		err = s.summary()
	case "/export":
		var n int
		if n, err = s.svc.Export(ctx, nil); err == nil {
			fmt.Fprintf(s.out, "Exported %d rows to %s\n", n, s.svc.ExportName)
		}
	default:
		err = fmt.Errorf("unknown command %s (try /help)", cmd)
	}
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
	}
	return true
}

func (s *session) search(query string) error {
	res, err := s.svc.Search.Search(query, search.DefaultLimit, s.types...)
	if err != nil {
		return err
	}
	fmt.Fprint(s.out, formatResults(res))
	return nil
}

func (s *session) load(args string) error {
	kindArg, path, ok := strings.Cut(args, " ")
	if !ok {
		return fmt.Errorf("usage: /load <kind> <path>")
	}
	kind, err := processor.ParseKind(kindArg)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(strings.TrimSpace(path))
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	res, err := s.svc.Ingest(kind, baseName(path), data)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Loaded %s: %d matches\n", kind, res.MatchCount)
	for _, w := range res.Warnings {
		fmt.Fprintf(s.out, "  warning: %s\n", w)
	}
	return nil
}

func (s *session) compare(ctx context.Context, args string) error {
	kindArg, path, ok := strings.Cut(args, " ")
	if !ok {
		return fmt.Errorf("usage: /compare <kind> <path>")
	}
	kind, err := gradeKind(s.svc, kindArg)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(strings.TrimSpace(path))
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	report, err := s.svc.Compare(ctx, kind, baseName(path), data)
	if err != nil {
		return err
	}
	sum := report.Summary
	fmt.Fprintf(s.out, "Compared %d fields: average %.1f (high %d, medium %d, low %d, unscored %d)\n",
		sum.TotalFields, sum.AvgScore, sum.HighMatch, sum.MediumMatch, sum.LowMatch, sum.Unscored)
	return nil
}

func (s *session) score(args string) error {
	parts := strings.Fields(args)
	if len(parts) != 3 {
		return fmt.Errorf("usage: /score <pct> <type_match> <sensitivity_match>")
	}
	pct, err := strconv.ParseFloat(parts[0], 64)
	if err != nil || pct < 0 || pct > 100 {
		return fmt.Errorf("percentage must be a number between 0 and 100")
	}
	typeMatch, err := strconv.ParseBool(parts[1])
	if err != nil {
		return fmt.Errorf("invalid type match %q", parts[1])
	}
	sensMatch, err := strconv.ParseBool(parts[2])
	if err != nil {
		return fmt.Errorf("invalid sensitivity match %q", parts[2])
	}

	score := scoring.Score(pct, typeMatch, sensMatch)
	band := scoring.BandFor(score)
	fmt.Fprintf(s.out, "Score: %d (%s, %s)\n", score, band.Name, band.Status)
	return nil
}

func (s *session) summary() error {
	sum, err := s.svc.PolicySummary()
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s: %d rules, %d domains, %d sections\n", sum.FileName, sum.RuleCount, sum.DomainCount, sum.SectionCount)
	for sev, n := range sum.SeverityCounts {
		fmt.Fprintf(s.out, "  %s: %d\n", sev, n)
	}
	return nil
}

// runSearch prints the results of a one-off query
func runSearch(svc *service.Service, query string, types []string) error {
	res, err := svc.Search.Search(query, search.DefaultLimit, types...)
	if err != nil {
		return err
	}
	fmt.Print(formatResults(res))
	return nil
}

func formatResults(res search.Results) string {
	var sb strings.Builder
	if len(res.Hits) == 0 {
		sb.WriteString("No matches.\n")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("%d matches for %q:\n", res.TotalHits, res.Query))
	for i, h := range res.Hits {
		title := h.Title
		if h.Table != "" {
			title = h.Table + "." + title
		}
		sb.WriteString(fmt.Sprintf("  %d. [%s/%s] %s (%.2f)\n", i+1, h.Source, h.Type, title, h.Score))
		if h.Body != "" {
			sb.WriteString("     " + truncate(h.Body, 100) + "\n")
		}
	}
	return sb.String()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func baseName(path string) string {
	path = strings.TrimSpace(path)
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}
