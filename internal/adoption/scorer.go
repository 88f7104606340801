package adoption

import (
	"sort"
	"time"

	"github.com/copilot-pulse/backend/internal/identity"
	"github.com/copilot-pulse/backend/internal/models"
)

// DefaultTopN is the leaderboard size when the caller passes no limit.
const DefaultTopN = 10

// Weight of each normalized signal in the base score.
const signalWeight = 0.2

// maxConsistencyBonus caps the bonus for showing up many days.
const maxConsistencyBonus = 0.1

// userStats accumulates one user's counters during the grouping pass.
type userStats struct {
	login          string
	eventsLogged   int
	volume         int
	codeGeneration int
	codeAcceptance int
	locAdded       int
	locSuggested   int
	agentUsage     int
	chatUsage      int
	days           map[string]struct{}
}

// BuildLeaderboard aggregates per-user metric rows into ranked adoption
// summaries: the top N users individually plus one "Others" aggregate for the
// tail. A cohort of at most N users produces no Others row. Re-running on the
// same reporting window yields the same content hashes, so writes downstream
// stay idempotent.
func BuildLeaderboard(rows []models.UserMetricRow, org models.OrgRef, topN int) []models.UserAdoptionSummary {
	return buildLeaderboardAt(rows, org, topN, time.Now().UTC())
}

func buildLeaderboardAt(rows []models.UserMetricRow, org models.OrgRef, topN int, now time.Time) []models.UserAdoptionSummary {
	if len(rows) == 0 {
		return nil
	}
	if topN <= 0 {
		topN = DefaultTopN
	}

	// Group by login preserving first-seen order; that order is the explicit
	// tie-break for equal percentages later on.
	grouped := make(map[string]*userStats, len(rows))
	var order []*userStats
	var globalStart, globalEnd string

	for _, row := range rows {
		login := row.UserLogin
		if login == "" {
			login = "unknown"
		}
		stats, ok := grouped[login]
		if !ok {
			stats = &userStats{login: login, days: make(map[string]struct{})}
			grouped[login] = stats
			order = append(order, stats)
		}
		stats.eventsLogged++
		stats.volume += row.UserInitiatedInteractionCount
		stats.codeGeneration += row.CodeGenerationActivityCount
		stats.codeAcceptance += row.CodeAcceptanceActivityCount
		stats.locAdded += row.LocAddedSum
		stats.locSuggested += row.LocSuggestedToAddSum
		if row.UsedAgent {
			stats.agentUsage++
		}
		if row.UsedChat {
			stats.chatUsage++
		}
		if row.Day != "" {
			stats.days[row.Day] = struct{}{}
		}
		if row.ReportStartDay != "" && (globalStart == "" || row.ReportStartDay < globalStart) {
			globalStart = row.ReportStartDay
		}
		if row.ReportEndDay != "" && row.ReportEndDay > globalEnd {
			globalEnd = row.ReportEndDay
		}
	}

	stampedDay := globalEnd
	if stampedDay == "" {
		stampedDay = now.Format("2006-01-02")
	}

	summaries := make([]models.UserAdoptionSummary, 0, len(order))
	for _, stats := range order {
		activeDays := len(stats.days)
		var interactionsPerDay, averageLocAdded float64
		if activeDays > 0 {
			interactionsPerDay = float64(stats.volume) / float64(activeDays)
			averageLocAdded = float64(stats.locAdded) / float64(activeDays)
		}
		var acceptanceRate float64
		if stats.codeGeneration > 0 {
			acceptanceRate = float64(stats.codeAcceptance) / float64(stats.codeGeneration)
		}
		summaries = append(summaries, models.UserAdoptionSummary{
			UserLogin:                   stats.login,
			OrganizationSlug:            org.Slug,
			SlugType:                    org.SlugType(),
			EventsLogged:                stats.eventsLogged,
			Volume:                      stats.volume,
			CodeGenerationActivityCount: stats.codeGeneration,
			CodeAcceptanceActivityCount: stats.codeAcceptance,
			LocAddedSum:                 stats.locAdded,
			LocSuggestedToAddSum:        stats.locSuggested,
			AgentUsage:                  stats.agentUsage,
			ChatUsage:                   stats.chatUsage,
			ActiveDays:                  activeDays,
			AverageLocAdded:             averageLocAdded,
			InteractionsPerDay:          interactionsPerDay,
			AcceptanceRate:              acceptanceRate,
			FeatureBreadth:              float64(stats.agentUsage + stats.chatUsage),
			ReportStartDay:              globalStart,
			ReportEndDay:                globalEnd,
			Day:                         stampedDay,
			BucketType:                  models.BucketUser,
		})
	}

	// Percentile bounds are computed once over the whole cohort.
	volumeB := signalBounds(collect(summaries, func(s *models.UserAdoptionSummary) float64 { return float64(s.Volume) }))
	interB := signalBounds(collect(summaries, func(s *models.UserAdoptionSummary) float64 { return s.InteractionsPerDay }))
	acceptB := signalBounds(collect(summaries, func(s *models.UserAdoptionSummary) float64 { return s.AcceptanceRate }))
	locB := signalBounds(collect(summaries, func(s *models.UserAdoptionSummary) float64 { return s.AverageLocAdded }))
	breadthB := signalBounds(collect(summaries, func(s *models.UserAdoptionSummary) float64 { return s.FeatureBreadth }))

	maxActiveDays := 0
	for i := range summaries {
		if summaries[i].ActiveDays > maxActiveDays {
			maxActiveDays = summaries[i].ActiveDays
		}
	}

	var maxScore float64
	for i := range summaries {
		s := &summaries[i]
		base := signalWeight*robustScale(float64(s.Volume), volumeB) +
			signalWeight*robustScale(s.InteractionsPerDay, interB) +
			signalWeight*robustScale(s.AcceptanceRate, acceptB) +
			signalWeight*robustScale(s.AverageLocAdded, locB) +
			signalWeight*robustScale(s.FeatureBreadth, breadthB)

		var bonus float64
		if maxActiveDays > 0 {
			bonus = maxConsistencyBonus * float64(s.ActiveDays) / float64(maxActiveDays)
			if bonus > maxConsistencyBonus {
				bonus = maxConsistencyBonus
			}
		}
		s.ConsistencyBonus = bonus
		s.AdoptionScore = base * (1 + bonus)
		if s.AdoptionScore > maxScore {
			maxScore = s.AdoptionScore
		}
	}

	for i := range summaries {
		if maxScore > 0 {
			summaries[i].AdoptionPct = round1(summaries[i].AdoptionScore / maxScore * 100)
		} else {
			summaries[i].AdoptionPct = 0.0
		}
	}

	// Stable sort keeps first-seen order as the tie-break for equal pct.
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].AdoptionPct > summaries[j].AdoptionPct
	})

	cut := topN
	if cut > len(summaries) {
		cut = len(summaries)
	}
	entries := make([]models.UserAdoptionSummary, 0, cut+1)
	for i := 0; i < cut; i++ {
		s := summaries[i]
		rank := i + 1
		s.Rank = &rank
		s.IsTop10 = true
		s.UniqueHash = identity.Hash(s.Doc(), identity.AdoptionKeys)
		entries = append(entries, s)
	}

	if tail := summaries[cut:]; len(tail) > 0 {
		entries = append(entries, foldOthers(tail, org, globalStart, globalEnd, stampedDay, maxScore))
	}
	return entries
}

// foldOthers aggregates the tail beyond the leaderboard into one row:
// additive counters are summed, rate-like fields are averaged over the tail
// population, and the percentage is recomputed from the averaged score
// against the same cohort-wide max used for the individual rows.
func foldOthers(tail []models.UserAdoptionSummary, org models.OrgRef, startDay, endDay, stampedDay string, maxScore float64) models.UserAdoptionSummary {
	others := models.UserAdoptionSummary{
		UserLogin:        "Others",
		OrganizationSlug: org.Slug,
		SlugType:         org.SlugType(),
		ReportStartDay:   startDay,
		ReportEndDay:     endDay,
		Day:              stampedDay,
		BucketType:       models.BucketOthers,
		OthersCount:      len(tail),
	}
	var sumLoc, sumInter, sumAccept, sumBreadth, sumScore float64
	for _, s := range tail {
		others.EventsLogged += s.EventsLogged
		others.Volume += s.Volume
		others.CodeGenerationActivityCount += s.CodeGenerationActivityCount
		others.CodeAcceptanceActivityCount += s.CodeAcceptanceActivityCount
		others.LocAddedSum += s.LocAddedSum
		others.LocSuggestedToAddSum += s.LocSuggestedToAddSum
		others.AgentUsage += s.AgentUsage
		others.ChatUsage += s.ChatUsage
		others.ActiveDays += s.ActiveDays
		sumLoc += s.AverageLocAdded
		sumInter += s.InteractionsPerDay
		sumAccept += s.AcceptanceRate
		sumBreadth += s.FeatureBreadth
		sumScore += s.AdoptionScore
	}
	n := float64(len(tail))
	others.AverageLocAdded = sumLoc / n
	others.InteractionsPerDay = sumInter / n
	others.AcceptanceRate = sumAccept / n
	others.FeatureBreadth = sumBreadth / n
	others.AdoptionScore = sumScore / n
	scale := maxScore
	if scale <= 0 {
		scale = 1
	}
	others.AdoptionPct = round1(others.AdoptionScore / scale * 100)
	others.UniqueHash = identity.Hash(others.Doc(), identity.AdoptionKeys)
	return others
}

func collect(summaries []models.UserAdoptionSummary, get func(*models.UserAdoptionSummary) float64) []float64 {
	values := make([]float64, len(summaries))
	for i := range summaries {
		values[i] = get(&summaries[i])
	}
	return values
}
