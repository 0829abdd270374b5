package service

import (
	"adaptive_learning_backend/internal/model"
	"fmt"
	"math"
	"sort"
	"strings"
)

// ScoreWeights 某类内容的评分权重
type ScoreWeights struct {
	DifficultyFit float64
	// WeakArea 默认权重，WeakAreaTargeted 在 preferTargetWeakAreas 时使用
	WeakArea         float64
	WeakAreaTargeted float64
	// Similarity 只对课程生效，且需开启 preferSimilarToRecentlyStudied
	Similarity float64
	// Bonus 课程为热度，课时/练习为短时长奖励
	Bonus           float64
	BonusMaxMinutes int
	PreferredTag    float64
	ExcludedTag     float64
	// MinReasons 理由少于该数量的候选被丢弃
	MinReasons int
}

var Weights = map[model.ContentKind]ScoreWeights{
	model.ContentCourse: {
		DifficultyFit:    35,
		WeakArea:         20,
		WeakAreaTargeted: 30,
		Similarity:       20,
		Bonus:            15,
		PreferredTag:     15,
		ExcludedTag:      50,
	},
	model.ContentLesson: {
		DifficultyFit:    40,
		WeakArea:         30,
		WeakAreaTargeted: 40,
		Bonus:            10,
		BonusMaxMinutes:  20,
		PreferredTag:     20,
		ExcludedTag:      50,
	},
	model.ContentPractice: {
		DifficultyFit:    40,
		WeakArea:         30,
		WeakAreaTargeted: 40,
		Bonus:            15,
		BonusMaxMinutes:  15,
		PreferredTag:     15,
		ExcludedTag:      50,
		MinReasons:       2,
	},
}

const ReasonBalanced = "balanced next step for your profile"

// ScoringContext 一次推荐请求中所有候选共享的输入
type ScoringContext struct {
	Settings         model.RecommendationSettings
	TargetDifficulty int
	// WeakCategories 按技能枚举顺序，随后是 strugglingAreas
	WeakCategories []string
	// RecentTagIDs 最近学习过的课程的标签 ID
	RecentTagIDs  map[string]bool
	MaxPopularity float64

	weakSet map[string]bool
}

// WeakCategoriesFor 有评估弱项或熟练度低于 50 的技能，以及用户自述的薄弱领域
func WeakCategoriesFor(profile *model.LearnerProfile) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(c string) {
		if c == "" || seen[c] {
			return
		}
		seen[c] = true
		out = append(out, c)
	}
	for _, skill := range model.AllSkills() {
		if len(Evaluate(profile, skill).Weaknesses) > 0 || profile.Level(skill) < 50 {
			add(string(skill))
		}
	}
	for _, area := range profile.StrugglingAreas {
		add(area)
	}
	return out
}

// NewScoringContext recentCourses 为最近学习过的课程，maxPopularity 为目录中的最高热度
func NewScoringContext(profile *model.LearnerProfile, settings model.RecommendationSettings, recentCourses []model.Course, maxPopularity float64) *ScoringContext {
	target := settings.TargetDifficulty
	if target < model.MinContentDifficulty || target > model.MaxContentDifficulty {
		target = profile.PreferredDifficulty.Rank()
		if target == 0 {
			target = model.DifficultyIntermediate.Rank()
		}
	}

	recent := make(map[string]bool)
	for _, c := range recentCourses {
		for _, t := range c.Tags {
			recent[t.ID] = true
		}
	}

	sc := &ScoringContext{
		Settings:         settings,
		TargetDifficulty: target,
		WeakCategories:   WeakCategoriesFor(profile),
		RecentTagIDs:     recent,
		MaxPopularity:    maxPopularity,
	}
	sc.weakSet = make(map[string]bool, len(sc.WeakCategories))
	for _, c := range sc.WeakCategories {
		sc.weakSet[c] = true
	}
	return sc
}

// ScoreResult 单个候选的得分和理由
type ScoreResult struct {
	Score   int
	Reasons []string
}

// DifficultyFit 难度差 0..4 的阶梯系数
func DifficultyFit(target, candidate int) float64 {
	diff := target - candidate
	if diff < 0 {
		diff = -diff
	}
	switch diff {
	case 0:
		return 1.0
	case 1:
		return 0.8
	case 2:
		return 0.5
	case 3:
		return 0.2
	default:
		return 0
	}
}

func tagMatches(tag model.ContentTag, names []string) bool {
	for _, n := range names {
		if n != "" && (n == tag.ID || n == tag.Name || n == tag.Category) {
			return true
		}
	}
	return false
}

func anyTagMatches(tags []model.ContentTag, names []string) bool {
	for _, t := range tags {
		if tagMatches(t, names) {
			return true
		}
	}
	return false
}

// jaccard 基于标签 ID
func jaccard(tags []model.ContentTag, other map[string]bool) float64 {
	if len(tags) == 0 || len(other) == 0 {
		return 0
	}
	own := make(map[string]bool, len(tags))
	for _, t := range tags {
		own[t.ID] = true
	}
	inter := 0
	for id := range own {
		if other[id] {
			inter++
		}
	}
	union := len(own) + len(other) - inter
	return float64(inter) / float64(union)
}

type candidate struct {
	kind       model.ContentKind
	tags       []model.ContentTag
	difficulty int
	popularity float64
	minutes    int
}

func (sc *ScoringContext) score(c candidate) ScoreResult {
	w := Weights[c.kind]
	var total float64
	var reasons []string

	fit := DifficultyFit(sc.TargetDifficulty, c.difficulty)
	total += fit * w.DifficultyFit
	if fit > 0.7 {
		reasons = append(reasons, fmt.Sprintf("difficulty %d suits your current level", c.difficulty))
	}

	if len(c.tags) > 0 {
		var matched []string
		seen := make(map[string]bool)
		hits := 0
		for _, t := range c.tags {
			if sc.weakSet[t.Category] {
				hits++
				if !seen[t.Category] {
					seen[t.Category] = true
					matched = append(matched, t.Category)
				}
			}
		}
		if hits > 0 {
			weight := w.WeakArea
			if sc.Settings.PreferTargetWeakAreas {
				weight = w.WeakAreaTargeted
			}
			total += weight * float64(hits) / float64(len(c.tags))
			reasons = append(reasons, "targets your weak areas: "+strings.Join(matched, ", "))
		}
	}

	if w.Similarity > 0 && sc.Settings.PreferSimilarToRecentlyStudied {
		if sim := jaccard(c.tags, sc.RecentTagIDs); sim > 0 {
			total += w.Similarity * sim
			reasons = append(reasons, "similar to content you studied recently")
		}
	}

	switch c.kind {
	case model.ContentCourse:
		if sc.MaxPopularity > 0 && c.popularity > 0 {
			ratio := math.Min(1, c.popularity/sc.MaxPopularity)
			total += w.Bonus * ratio
			if ratio >= 0.8 {
				reasons = append(reasons, "popular with other learners")
			}
		}
	default:
		if c.minutes > 0 && c.minutes <= w.BonusMaxMinutes {
			total += w.Bonus
			reasons = append(reasons, fmt.Sprintf("short session (%d min)", c.minutes))
		}
	}

	if anyTagMatches(c.tags, sc.Settings.PreferredTags) {
		total += w.PreferredTag
		reasons = append(reasons, "matches your preferred topics")
	}

	total = math.Max(0, math.Min(100, total))
	if anyTagMatches(c.tags, sc.Settings.ExcludeTags) {
		total = math.Max(0, total-w.ExcludedTag)
	}

	if reasons == nil {
		reasons = []string{}
	}
	return ScoreResult{Score: int(math.Round(total)), Reasons: reasons}
}

func (sc *ScoringContext) ScoreCourse(c model.Course) ScoreResult {
	return sc.score(candidate{kind: model.ContentCourse, tags: c.Tags, difficulty: c.Difficulty, popularity: c.Popularity})
}

func (sc *ScoringContext) ScoreLesson(l model.Lesson) ScoreResult {
	return sc.score(candidate{kind: model.ContentLesson, tags: l.Tags, difficulty: l.Difficulty, minutes: l.EstimatedTimeMinutes})
}

func (sc *ScoringContext) ScorePractice(p model.Practice) ScoreResult {
	return sc.score(candidate{kind: model.ContentPractice, tags: p.Tags, difficulty: p.Difficulty, minutes: p.EstimatedTimeMinutes})
}

// keep 判断候选是否保留，必要时补充兜底理由
func keep(kind model.ContentKind, r *ScoreResult) bool {
	if r.Score <= 0 || len(r.Reasons) < Weights[kind].MinReasons {
		return false
	}
	if len(r.Reasons) == 0 {
		r.Reasons = []string{ReasonBalanced}
	}
	return true
}

type ranked[T any] struct {
	id    string
	score int
	item  T
}

func topN[T any](items []ranked[T], count int) []T {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].score != items[j].score {
			return items[i].score > items[j].score
		}
		return items[i].id < items[j].id
	})
	if len(items) > count {
		items = items[:count]
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		out = append(out, it.item)
	}
	return out
}

func (sc *ScoringContext) RankCourses(courses []model.Course, count int) []model.CourseRecommendation {
	if count <= 0 {
		return []model.CourseRecommendation{}
	}
	var items []ranked[model.CourseRecommendation]
	for _, c := range courses {
		r := sc.ScoreCourse(c)
		if !keep(model.ContentCourse, &r) {
			continue
		}
		items = append(items, ranked[model.CourseRecommendation]{id: c.ID, score: r.Score, item: model.CourseRecommendation{
			CourseID:   c.ID,
			Title:      c.Title,
			MatchScore: r.Score,
			Tags:       c.Tags,
			Difficulty: c.Difficulty,
			Reasons:    r.Reasons,
		}})
	}
	return topN(items, count)
}

func (sc *ScoringContext) RankLessons(lessons []model.Lesson, count int) []model.LessonRecommendation {
	if count <= 0 {
		return []model.LessonRecommendation{}
	}
	var items []ranked[model.LessonRecommendation]
	for _, l := range lessons {
		r := sc.ScoreLesson(l)
		if !keep(model.ContentLesson, &r) {
			continue
		}
		items = append(items, ranked[model.LessonRecommendation]{id: l.ID, score: r.Score, item: model.LessonRecommendation{
			LessonID:   l.ID,
			CourseID:   l.CourseID,
			Title:      l.Title,
			MatchScore: r.Score,
			Tags:       l.Tags,
			Difficulty: l.Difficulty,
			Reasons:    r.Reasons,
		}})
	}
	return topN(items, count)
}

func (sc *ScoringContext) RankPractices(practices []model.Practice, count int) []model.PracticeRecommendation {
	if count <= 0 {
		return []model.PracticeRecommendation{}
	}
	var items []ranked[model.PracticeRecommendation]
	for _, p := range practices {
		r := sc.ScorePractice(p)
		if !keep(model.ContentPractice, &r) {
			continue
		}
		items = append(items, ranked[model.PracticeRecommendation]{id: p.ID, score: r.Score, item: model.PracticeRecommendation{
			PracticeID: p.ID,
			Title:      p.Title,
			MatchScore: r.Score,
			Tags:       p.Tags,
			Difficulty: p.Difficulty,
			Reasons:    r.Reasons,
		}})
	}
	return topN(items, count)
}

// 混合推荐的分配比例，顺序与 model.AllContentKinds 一致
var mixRatios = map[string][]int{
	"course,lesson,practice": {4, 3, 1},
	"course,lesson":          {6, 4},
	"course,practice":        {7, 3},
	"lesson,practice":        {8, 2},
}

// Allocate 将 total 按比例分配给启用的内容类型
func Allocate(kinds []model.ContentKind, total int) map[model.ContentKind]int {
	enabled := make(map[model.ContentKind]bool)
	for _, k := range kinds {
		enabled[k] = true
	}
	var ordered []model.ContentKind
	var names []string
	for _, k := range model.AllContentKinds() {
		if enabled[k] {
			ordered = append(ordered, k)
			names = append(names, string(k))
		}
	}

	out := make(map[model.ContentKind]int, len(ordered))
	if len(ordered) == 0 || total <= 0 {
		return out
	}
	if len(ordered) == 1 {
		out[ordered[0]] = total
		return out
	}

	ratios := mixRatios[strings.Join(names, ",")]
	sum := 0
	for _, r := range ratios {
		sum += r
	}

	assigned := 0
	remainders := make([]int, len(ordered))
	for i, k := range ordered {
		out[k] = total * ratios[i] / sum
		remainders[i] = total * ratios[i] % sum
		assigned += out[k]
	}
	// 余数最大的优先补足，相同时按比例顺序
	byRemainder := make([]int, len(ordered))
	for i := range byRemainder {
		byRemainder[i] = i
	}
	sort.SliceStable(byRemainder, func(a, b int) bool {
		return remainders[byRemainder[a]] > remainders[byRemainder[b]]
	})
	for i := 0; assigned < total; i++ {
		out[ordered[byRemainder[i%len(ordered)]]]++
		assigned++
	}

	if total >= len(ordered) {
		for _, k := range ordered {
			if out[k] > 0 {
				continue
			}
			largest := ordered[0]
			for _, other := range ordered {
				if out[other] > out[largest] {
					largest = other
				}
			}
			out[largest]--
			out[k]++
		}
	}
	return out
}
