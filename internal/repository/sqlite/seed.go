package sqlite

import (
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/RaknaroK4LifeBRuv/verbo-friend-mentor/internal/model"
)

// seed inserts reference data the application expects on first boot: the
// achievement catalog (upserted by type, idempotent) and the three starter
// lessons when the lessons table is empty.
//
// Seeding happens here, once, at startup; lesson list queries never create
// content as a side effect.
func (db *DB) seed() error {
	if err := db.seedAchievements(); err != nil {
		return err
	}
	return db.seedLessons()
}

func (db *DB) seedAchievements() error {
	catalog := []model.Achievement{
		{Type: model.AchievementFirstLesson, Name: "First Steps",
			Description: "Complete your first lesson", Icon: "footprints", XPReward: 50},
		{Type: model.AchievementFirstConversation, Name: "Breaking the Ice",
			Description: "Start your first conversation with the AI tutor", Icon: "message-circle", XPReward: 50},
		{Type: model.AchievementLessonMaster, Name: "Lesson Master",
			Description: "Complete ten lessons", Icon: "graduation-cap", XPReward: 150},
		{Type: model.AchievementStreakWeek, Name: "On a Roll",
			Description: "Practice seven days in a row", Icon: "flame", XPReward: 100},
		{Type: model.AchievementXP500, Name: "Rising Star",
			Description: "Earn 500 XP", Icon: "star", XPReward: 100},
	}

	for _, a := range catalog {
		// INSERT OR IGNORE keyed on the UNIQUE type column, so re-running the
		// seed never duplicates or overwrites unlock references.
		_, err := db.conn.Exec(
			`INSERT OR IGNORE INTO achievements (id, type, name, description, icon, xp_reward)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			xid.New().String(), a.Type, a.Name, a.Description, a.Icon, a.XPReward,
		)
		if err != nil {
			return fmt.Errorf("seeding achievement %s: %w", a.Type, err)
		}
	}

	return nil
}

func (db *DB) seedLessons() error {
	var count int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM lessons`).Scan(&count); err != nil {
		return fmt.Errorf("counting lessons: %w", err)
	}
	if count > 0 {
		return nil
	}

	now := time.Now()
	starters := []model.Lesson{
		{
			Title:       "Greetings and Introductions",
			Description: "Learn how to greet people and introduce yourself",
			Language:    "Spanish",
			Level:       model.LevelBeginner,
			Duration:    15,
			Type:        model.LessonTypeConversation,
			Content: model.LessonContent{Sections: []model.LessonSection{
				{
					Title: "Basic Greetings",
					Content: `<h3>Common Spanish Greetings</h3>
<ul>
  <li><strong>Hola</strong> - Hello</li>
  <li><strong>Buenos días</strong> - Good morning</li>
  <li><strong>Buenas tardes</strong> - Good afternoon</li>
  <li><strong>Buenas noches</strong> - Good evening</li>
</ul>
<p>Practice saying these phrases out loud to improve your pronunciation.</p>`,
				},
				{
					Title: "Introducing Yourself",
					Content: `<h3>Introducing Yourself in Spanish</h3>
<ul>
  <li><strong>Me llamo...</strong> - My name is...</li>
  <li><strong>Soy de...</strong> - I am from...</li>
  <li><strong>Mucho gusto</strong> - Nice to meet you</li>
</ul>
<p>Try creating a full introduction using these phrases.</p>`,
				},
			}},
		},
		{
			Title:       "Numbers and Counting",
			Description: "Learn to count and use numbers in conversation",
			Language:    "Spanish",
			Level:       model.LevelBeginner,
			Duration:    10,
			Type:        model.LessonTypeVocabulary,
			Content: model.LessonContent{Sections: []model.LessonSection{
				{
					Title: "Numbers 1-10",
					Content: `<h3>Numbers in Spanish (1-10)</h3>
<ul>
  <li><strong>Uno</strong> - One</li>
  <li><strong>Dos</strong> - Two</li>
  <li><strong>Tres</strong> - Three</li>
  <li><strong>Cuatro</strong> - Four</li>
  <li><strong>Cinco</strong> - Five</li>
  <li><strong>Seis</strong> - Six</li>
  <li><strong>Siete</strong> - Seven</li>
  <li><strong>Ocho</strong> - Eight</li>
  <li><strong>Nueve</strong> - Nine</li>
  <li><strong>Diez</strong> - Ten</li>
</ul>
<p>Practice counting from 1 to 10 in Spanish.</p>`,
				},
				{
					Title: "Using Numbers",
					Content: `<h3>Using Numbers in Conversation</h3>
<p>Numbers are essential for many everyday conversations:</p>
<ul>
  <li>Telling time: <strong>Son las tres</strong> (It's three o'clock)</li>
  <li>Shopping: <strong>Quiero dos manzanas</strong> (I want two apples)</li>
  <li>Phone numbers: <strong>Mi número es...</strong> (My number is...)</li>
</ul>
<p>Try creating sentences using the numbers you've learned.</p>`,
				},
			}},
		},
		{
			Title:       "Common Verbs",
			Description: "Learn essential verbs and basic conjugation",
			Language:    "Spanish",
			Level:       model.LevelBeginner,
			Duration:    20,
			Type:        model.LessonTypeGrammar,
			Content: model.LessonContent{Sections: []model.LessonSection{
				{
					Title: "Regular -AR Verbs",
					Content: `<h3>Common -AR Verbs</h3>
<ul>
  <li><strong>Hablar</strong> - To speak</li>
  <li><strong>Caminar</strong> - To walk</li>
  <li><strong>Trabajar</strong> - To work</li>
  <li><strong>Estudiar</strong> - To study</li>
</ul>
<h4>Present Tense Conjugation</h4>
<p>For the verb <strong>hablar</strong>:</p>
<ul>
  <li>yo <strong>hablo</strong> - I speak</li>
  <li>tú <strong>hablas</strong> - You speak</li>
  <li>él/ella <strong>habla</strong> - He/she speaks</li>
  <li>nosotros <strong>hablamos</strong> - We speak</li>
  <li>ustedes <strong>hablan</strong> - You all speak</li>
  <li>ellos/ellas <strong>hablan</strong> - They speak</li>
</ul>`,
				},
			}},
		},
	}

	for i := range starters {
		l := &starters[i]
		l.ID = xid.New().String()
		l.CreatedAt = now

		content, err := encodeJSON(l.Content)
		if err != nil {
			return fmt.Errorf("encoding starter lesson content: %w", err)
		}

		_, err = db.conn.Exec(
			`INSERT INTO lessons (id, title, description, language, level, duration, type, content, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			l.ID, l.Title, l.Description, l.Language, l.Level, l.Duration, l.Type, content, l.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("seeding lesson %q: %w", l.Title, err)
		}
	}

	return nil
}
