package assistant

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/WessleyAI/wessley-sales/engine/conversation"
	"github.com/WessleyAI/wessley-sales/engine/domain"
	"github.com/WessleyAI/wessley-sales/engine/finance"
	"github.com/WessleyAI/wessley-sales/pkg/vehiclenlp"
)

func (o *Orchestrator) handleSearch(ctx context.Context, s *conversation.State, msg string) (string, error) {
	prefs := vehiclenlp.ParsePreferences(msg)
	if prev, shown, ok := searchContext(s.Recent(o.opts.HistoryTurns)); ok {
		prefs = refine(prefs, msg, prev, shown)
	}
	results, err := o.search.Search(ctx, prefs, o.opts.TopK)
	if err != nil {
		if isDependencyFault(err) {
			o.logger.Warn("assistant: catalog search unavailable", "user_id", s.UserID, "err", err)
			return replySearchUnavailable, nil
		}
		return "", err
	}
	o.logger.Debug("assistant: catalog search",
		"user_id", s.UserID,
		"filters", prefs.Filters,
		"results", len(results))
	if len(results) == 0 {
		return replyNoResults, nil
	}
	return FormatResults(results), nil
}

// FormatResults renders ranked vehicles as a numbered Spanish list.
func FormatResults(results []domain.RankedResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Encontré %d %s que podrían interesarte:\n\n", len(results), plural(len(results), "opción", "opciones"))
	for i, r := range results {
		v := r.Vehicle
		title := v.Title()
		if v.Version != "" {
			title += " " + v.Version
		}
		fmt.Fprintf(&b, "%d. 🚗 %s\n", i+1, title)
		fmt.Fprintf(&b, "   💰 Precio: %s MXN\n", finance.Money(v.Price, 0))
		fmt.Fprintf(&b, "   📏 Kilometraje: %s km\n", strings.TrimPrefix(finance.Money(float64(v.Mileage), 0), "$"))
		if len(v.Features) > 0 {
			fmt.Fprintf(&b, "   ✨ Equipamiento: %s\n", strings.Join(v.Features, ", "))
		}
		b.WriteByte('\n')
	}
	b.WriteString(replySearchFooter)
	return b.String()
}

var shownPriceRe = regexp.MustCompile(`Precio: \$([\d,]+(?:\.\d+)?) MXN`)

// shownPrices reads back the prices listed in a FormatResults reply.
func shownPrices(reply string) []float64 {
	var out []float64
	for _, m := range shownPriceRe.FindAllStringSubmatch(reply, -1) {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64); err == nil {
			out = append(out, v)
		}
	}
	return out
}

// searchContext folds the catalog searches in history, oldest first, into
// the preferences a follow-up refines. shown holds the prices listed in the
// reply to the latest of them.
func searchContext(history []conversation.Turn) (prefs domain.Preferences, shown []float64, ok bool) {
	for i, t := range history {
		if t.Role != conversation.RoleUser || t.Intent != domain.IntentCatalogSearch {
			continue
		}
		cur := vehiclenlp.ParsePreferences(t.Text)
		if ok {
			cur = refine(cur, t.Text, prefs, shown)
		}
		prefs, ok, shown = cur, true, nil
		if i+1 < len(history) && history[i+1].Role == conversation.RoleAssistant {
			shown = shownPrices(history[i+1].Text)
		}
	}
	return prefs, shown, ok
}

// refine layers a follow-up message over the earlier search. Messages that
// start a new search come back unchanged.
func refine(cur domain.Preferences, msg string, prev domain.Preferences, shown []float64) domain.Preferences {
	if !vehiclenlp.IsFollowUp(msg) {
		return cur
	}
	if cur.Filters.MaxPrice == 0 && vehiclenlp.WantsCheaper(msg) && len(shown) > 0 {
		if ceil := slices.Min(shown) - 1; ceil > 0 {
			cur.Filters.MaxPrice = ceil
		}
	}
	cur.Filters = cur.Filters.Inherit(prev.Filters)
	cur.Query = strings.TrimSpace(prev.Query + ". " + cur.Query)
	return cur
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
