// Command gs1-patches lists the registered patches and the per-key
// constants a voice derives from them.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/cwbudde/algo-gs1/fm"
	"github.com/cwbudde/algo-gs1/internal/cli"
	"github.com/cwbudde/algo-gs1/preset"
)

const defaultKeys = "1,13,25,37,49,61,73,88"

func main() {
	patchFile := flag.String("patch-file", "", "Patch JSON file to register before listing (optional)")
	patchID := flag.Int("patch", -1, "Only list this patch id (-1 lists all)")
	keysFlag := flag.String("keys", defaultKeys, "Comma separated keys to derive constants for")
	flag.Parse()

	st := cli.NewStyles()
	reg := fm.NewDefaultRegistry()
	if *patchFile != "" {
		if _, err := preset.RegisterFile(reg, *patchFile); err != nil {
			fmt.Fprintf(os.Stderr, "%s loading %q: %v\n", st.Err.Render("Error"), *patchFile, err)
			os.Exit(1)
		}
	}
	keys, err := cli.ParseKeys(*keysFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s parsing -keys: %v\n", st.Err.Render("Error"), err)
		os.Exit(1)
	}
	if err := listPatches(os.Stdout, st, reg, *patchID, keys); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", st.Err.Render("Error"), err)
		os.Exit(1)
	}
}

func listPatches(w io.Writer, st cli.Styles, reg *fm.Registry, only int, keys []int) error {
	ids := reg.IDs()
	if only >= 0 {
		if _, ok := reg.Get(only); !ok {
			return fmt.Errorf("patch %d: %w", only, fm.ErrUnknownPatch)
		}
		ids = []int{only}
	}
	for i, id := range ids {
		p, _ := reg.Get(id)
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, st.Title.Render(fmt.Sprintf("%d %s", id, p.Name)))
		fmt.Fprintln(w, st.Field("ratio", formatOps(p.Ratio[:], func(v float32) string { return strconv.FormatFloat(float64(v), 'g', -1, 32) })))
		fmt.Fprintln(w, st.Field("detune cents", formatOps(p.DetuneCents[:], strconv.Itoa)))
		fmt.Fprintln(w, st.Field("levels", formatOps(levelPairs(p), func(s string) string { return s })))
		fmt.Fprintln(w, keyTable(st, p, keys))
	}
	return nil
}

func formatOps[T any](vals []T, f func(T) string) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fm.Operator(i).String() + "=" + f(v)
	}
	return strings.Join(parts, "  ")
}

func levelPairs(p *fm.PatchConfig) []string {
	out := make([]string, fm.NumOperators)
	for i := range out {
		out[i] = fmt.Sprintf("%d/%d", p.InitialLevel[i], p.SustainLevel[i])
	}
	return out
}

// keyRows derives the constants of every key and operator, one row each.
func keyRows(p *fm.PatchConfig, keys []int) [][]string {
	rows := make([][]string, 0, len(keys)*fm.NumOperators)
	for _, k := range keys {
		n := fm.Derive(p, k)
		for op := fm.C1; op < fm.NumOperators; op++ {
			first := ""
			hz := ""
			if op == fm.C1 {
				first = strconv.Itoa(k)
				hz = fmt.Sprintf("%.2f", n.Frequency)
			}
			rows = append(rows, []string{
				first,
				hz,
				op.String(),
				strconv.FormatUint(uint64(n.ControlWord[op]), 10),
				strconv.Itoa(n.Scale[op]),
				fmt.Sprintf("%.0f", n.Attack[op]),
				fmt.Sprintf("%.3f", n.Decay[op]),
				fmt.Sprintf("%.1f", n.Release[op]),
			})
		}
	}
	return rows
}

func keyTable(st cli.Styles, p *fm.PatchConfig, keys []int) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(st.Dim).
		Headers("key", "Hz", "op", "control word", "scale", "attack", "decay", "release")
	for _, row := range keyRows(p, keys) {
		t.Row(row...)
	}
	return t.String()
}
