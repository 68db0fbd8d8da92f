package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/ai"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/apperror"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/model"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/realtime"
	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/repository"
)

// Hand-written in-memory fakes implementing the repository interfaces.
// Tests exercise service logic against these instead of a database.

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testHub() *realtime.Hub {
	return realtime.NewHub(testLogger())
}

// ---- users ----

type fakeUserRepo struct {
	credentials map[string]*model.Credential // keyed by email
	users       map[string]*model.User       // keyed by id
	failWith    error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		credentials: make(map[string]*model.Credential),
		users:       make(map[string]*model.User),
	}
}

func (f *fakeUserRepo) CreateAccount(_ context.Context, cred *model.Credential, profile *model.User) error {
	if f.failWith != nil {
		return f.failWith
	}
	if _, taken := f.credentials[cred.Email]; taken {
		return apperror.Conflict("account", cred.Email)
	}
	c, p := *cred, *profile
	f.credentials[cred.Email] = &c
	f.users[profile.ID] = &p
	return nil
}

func (f *fakeUserRepo) GetCredentialByEmail(_ context.Context, email string) (*model.Credential, error) {
	cred, ok := f.credentials[email]
	if !ok {
		return nil, apperror.NotFound("account", email)
	}
	c := *cred
	return &c, nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("profile", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) UpdateUser(_ context.Context, id string, update model.UserUpdate) error {
	u, ok := f.users[id]
	if !ok {
		return apperror.NotFound("profile", id)
	}
	if update.Name != nil {
		u.Name = *update.Name
	}
	if update.NativeLanguage != nil {
		u.NativeLanguage = *update.NativeLanguage
	}
	if update.LearningLanguage != nil {
		u.LearningLanguage = *update.LearningLanguage
	}
	if update.ProficiencyLevel != nil {
		u.ProficiencyLevel = *update.ProficiencyLevel
	}
	if update.AvatarURL != nil {
		u.AvatarURL = *update.AvatarURL
	}
	return nil
}

// ---- lessons ----

type fakeLessonRepo struct {
	lessons      map[string]*model.Lesson
	userLessons  map[string]*model.UserLesson // keyed by id
	performances map[string][]model.LessonPerformance
}

func newFakeLessonRepo() *fakeLessonRepo {
	return &fakeLessonRepo{
		lessons:      make(map[string]*model.Lesson),
		userLessons:  make(map[string]*model.UserLesson),
		performances: make(map[string][]model.LessonPerformance),
	}
}

func (f *fakeLessonRepo) addLesson(id, language, level string) {
	f.lessons[id] = &model.Lesson{ID: id, Title: "Lesson " + id, Language: language, Level: level}
}

func (f *fakeLessonRepo) ListLessons(_ context.Context, filter repository.LessonFilter) ([]model.Lesson, error) {
	out := []model.Lesson{}
	for _, l := range f.lessons {
		if filter.Language != "" && l.Language != filter.Language {
			continue
		}
		if filter.Level != "" && l.Level != filter.Level {
			continue
		}
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeLessonRepo) GetLesson(_ context.Context, id string) (*model.Lesson, error) {
	l, ok := f.lessons[id]
	if !ok {
		return nil, apperror.NotFound("lesson", id)
	}
	copied := *l
	return &copied, nil
}

func (f *fakeLessonRepo) CreateUserLesson(_ context.Context, ul *model.UserLesson) error {
	for _, existing := range f.userLessons {
		if existing.UserID == ul.UserID && existing.LessonID == ul.LessonID {
			return apperror.Conflict("user lesson", ul.LessonID)
		}
	}
	copied := *ul
	f.userLessons[ul.ID] = &copied
	return nil
}

func (f *fakeLessonRepo) GetUserLesson(_ context.Context, id string) (*model.UserLesson, error) {
	ul, ok := f.userLessons[id]
	if !ok {
		return nil, apperror.NotFound("user lesson", id)
	}
	copied := *ul
	copied.Performances = append([]model.LessonPerformance{}, f.performances[id]...)
	return &copied, nil
}

func (f *fakeLessonRepo) FindUserLesson(_ context.Context, userID, lessonID string) (*model.UserLesson, error) {
	for id, ul := range f.userLessons {
		if ul.UserID == userID && ul.LessonID == lessonID {
			return f.GetUserLesson(context.Background(), id)
		}
	}
	return nil, apperror.NotFound("user lesson", lessonID)
}

func (f *fakeLessonRepo) ListUserLessons(_ context.Context, userID string) ([]model.UserLesson, error) {
	out := []model.UserLesson{}
	for id, ul := range f.userLessons {
		if ul.UserID != userID {
			continue
		}
		copied := *ul
		copied.Performances = append([]model.LessonPerformance{}, f.performances[id]...)
		out = append(out, copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeLessonRepo) UpdateUserLesson(_ context.Context, ul *model.UserLesson) error {
	if _, ok := f.userLessons[ul.ID]; !ok {
		return apperror.NotFound("user lesson", ul.ID)
	}
	copied := *ul
	f.userLessons[ul.ID] = &copied
	return nil
}

func (f *fakeLessonRepo) CreatePerformance(_ context.Context, p *model.LessonPerformance) error {
	f.performances[p.UserLessonID] = append(f.performances[p.UserLessonID], *p)
	return nil
}

// ---- conversations ----

type fakeConversationRepo struct {
	conversations map[string]*model.Conversation
	messages      map[string][]model.Message // keyed by conversation id
	failCreateMsg bool
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{
		conversations: make(map[string]*model.Conversation),
		messages:      make(map[string][]model.Message),
	}
}

func (f *fakeConversationRepo) CreateConversation(_ context.Context, conv *model.Conversation, greeting *model.Message) error {
	copied := *conv
	copied.Messages = nil
	f.conversations[conv.ID] = &copied
	f.messages[conv.ID] = []model.Message{*greeting}
	return nil
}

func (f *fakeConversationRepo) ListConversations(_ context.Context, userID string) ([]model.Conversation, error) {
	out := []model.Conversation{}
	for _, c := range f.conversations {
		if c.UserID == userID {
			copied := *c
			copied.Messages = []model.Message{}
			out = append(out, copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (f *fakeConversationRepo) GetConversation(_ context.Context, id string) (*model.Conversation, error) {
	c, ok := f.conversations[id]
	if !ok {
		return nil, apperror.NotFound("conversation", id)
	}
	copied := *c
	return &copied, nil
}

func (f *fakeConversationRepo) ListMessages(_ context.Context, conversationID string) ([]model.Message, error) {
	return append([]model.Message{}, f.messages[conversationID]...), nil
}

func (f *fakeConversationRepo) CreateMessage(_ context.Context, msg *model.Message) error {
	if f.failCreateMsg {
		return fmt.Errorf("fake: message insert failed")
	}
	f.messages[msg.ConversationID] = append(f.messages[msg.ConversationID], *msg)
	return nil
}

func (f *fakeConversationRepo) TouchConversation(_ context.Context, id string, at time.Time) error {
	c, ok := f.conversations[id]
	if !ok {
		return apperror.NotFound("conversation", id)
	}
	c.UpdatedAt = at
	return nil
}

func (f *fakeConversationRepo) DeleteConversation(_ context.Context, id string) error {
	if _, ok := f.conversations[id]; !ok {
		return apperror.NotFound("conversation", id)
	}
	delete(f.messages, id)
	delete(f.conversations, id)
	return nil
}

// ---- gamification ----

type fakeGamificationRepo struct {
	achievements     map[string]*model.Achievement // keyed by type
	userAchievements map[string]*model.UserAchievement
	progress         map[string]*model.UserProgress
	activities       []model.UserActivity
	failRecord       error
}

func newFakeGamificationRepo() *fakeGamificationRepo {
	return &fakeGamificationRepo{
		achievements:     make(map[string]*model.Achievement),
		userAchievements: make(map[string]*model.UserAchievement),
		progress:         make(map[string]*model.UserProgress),
	}
}

func (f *fakeGamificationRepo) addAchievement(achievementType string, xpReward int) {
	f.achievements[achievementType] = &model.Achievement{
		ID:       "ach-" + achievementType,
		Type:     achievementType,
		Name:     achievementType,
		XPReward: xpReward,
	}
}

func (f *fakeGamificationRepo) RecordActivity(_ context.Context, act *model.UserActivity, fold func(p *model.UserProgress)) (*model.UserProgress, error) {
	if f.failRecord != nil {
		return nil, f.failRecord
	}
	f.activities = append(f.activities, *act)
	p, ok := f.progress[act.UserID]
	if !ok {
		p = &model.UserProgress{UserID: act.UserID}
		f.progress[act.UserID] = p
	}
	fold(p)
	copied := *p
	return &copied, nil
}

func (f *fakeGamificationRepo) GetAchievementByType(_ context.Context, achievementType string) (*model.Achievement, error) {
	a, ok := f.achievements[achievementType]
	if !ok {
		return nil, apperror.NotFound("achievement", achievementType)
	}
	copied := *a
	return &copied, nil
}

func (f *fakeGamificationRepo) CreateUserAchievement(_ context.Context, ua *model.UserAchievement) error {
	key := ua.UserID + "/" + ua.AchievementID
	if _, ok := f.userAchievements[key]; ok {
		return apperror.Conflict("user achievement", ua.AchievementID)
	}
	copied := *ua
	f.userAchievements[key] = &copied
	return nil
}

func (f *fakeGamificationRepo) ListUserAchievements(_ context.Context, userID string) ([]model.UserAchievement, error) {
	out := []model.UserAchievement{}
	for _, ua := range f.userAchievements {
		if ua.UserID == userID {
			out = append(out, *ua)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UnlockedAt.After(out[j].UnlockedAt) })
	return out, nil
}

func (f *fakeGamificationRepo) GetUserProgress(_ context.Context, userID string) (*model.UserProgress, error) {
	p, ok := f.progress[userID]
	if !ok {
		return nil, apperror.NotFound("user progress", userID)
	}
	copied := *p
	return &copied, nil
}

func (f *fakeGamificationRepo) Leaderboard(_ context.Context, limit int) ([]model.LeaderboardEntry, error) {
	out := []model.LeaderboardEntry{}
	for _, p := range f.progress {
		out = append(out, model.LeaderboardEntry{UserID: p.UserID, TotalXP: p.TotalXP, Level: p.Level})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalXP > out[j].TotalXP })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ---- performance metrics ----

type fakePerformanceRepo struct {
	metrics []model.PerformanceMetric
}

func newFakePerformanceRepo() *fakePerformanceRepo {
	return &fakePerformanceRepo{}
}

func (f *fakePerformanceRepo) CreateMetric(_ context.Context, m *model.PerformanceMetric) error {
	f.metrics = append(f.metrics, *m)
	return nil
}

func (f *fakePerformanceRepo) ListMetrics(_ context.Context, userID string, q repository.MetricQuery) ([]model.PerformanceMetric, error) {
	out := []model.PerformanceMetric{}
	for _, m := range f.metrics {
		if m.UserID != userID {
			continue
		}
		if q.Category != "" && m.Category != q.Category {
			continue
		}
		if q.From != nil && m.Date.Before(*q.From) {
			continue
		}
		if q.To != nil && m.Date.After(*q.To) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if q.Ascending {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

// ---- ai ----

type fakeResponder struct {
	reply    string
	greeting string
	err      error
}

func (f *fakeResponder) Greeting(_ context.Context, language string) (string, error) {
	if f.greeting != "" {
		return f.greeting, nil
	}
	return "¡Hola! Bienvenido a " + language + ".", nil
}

func (f *fakeResponder) Reply(_ context.Context, _ []ai.ChatMessage) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}
