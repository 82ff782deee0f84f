package naming

import "testing"

func TestFromFilename(t *testing.T) {
	m, err := FromFilename("article_🎯_twitter_gpt_4_20240115_093000.md")
	if err != nil {
		t.Fatal(err)
	}
	if m.Emoji != "🎯" {
		t.Errorf("emoji = %q", m.Emoji)
	}
	if m.Platform != "twitter" {
		t.Errorf("platform = %q", m.Platform)
	}
	if m.ModelName != "gpt_4" {
		t.Errorf("modelName = %q", m.ModelName)
	}
	if m.Date != "20240115" {
		t.Errorf("date = %q", m.Date)
	}
	if m.Timestamp != "093000" {
		t.Errorf("timestamp = %q", m.Timestamp)
	}
}

func TestFromFilenameSingleModelPart(t *testing.T) {
	m, err := FromFilename("article_✨_weibo_claude_20240301_120000.md")
	if err != nil {
		t.Fatal(err)
	}
	if m.ModelName != "claude" {
		t.Errorf("modelName = %q", m.ModelName)
	}
	if m.Title != "claude" {
		t.Errorf("title = %q", m.Title)
	}
}

func TestFromFilenameRejectsBadNames(t *testing.T) {
	for _, name := range []string{
		"notes.md",
		"article_only_three.md",
		"post_🎯_twitter_gpt_20240115_093000.md",
	} {
		if _, err := FromFilename(name); err == nil {
			t.Errorf("FromFilename(%q): expected error", name)
		}
	}
}

func TestFromNameTolerant(t *testing.T) {
	m := FromName("random_notes.md")
	if m.Date != "" || m.Platform != "" {
		t.Errorf("expected zero fields, got %+v", m)
	}
	if m.Title != "random notes" {
		t.Errorf("title = %q", m.Title)
	}
}

func TestEpisodeNumber(t *testing.T) {
	if n := EpisodeNumber("episode_007"); n != 7 {
		t.Errorf("episode_007 = %d", n)
	}
	if n := EpisodeNumber("episode_12"); n != 12 {
		t.Errorf("episode_12 = %d", n)
	}
	if n := EpisodeNumber("intro"); n != 0 {
		t.Errorf("intro = %d", n)
	}
}

func TestSeriesNumber(t *testing.T) {
	cases := []struct {
		id   string
		want int
	}{
		{"series_1", 1},
		{"ml_series_3", 3},
		{"LLM_series/series_1_llm_foundation", 1},
		{"ML_series/series_12_deep_learning", 12},
		{"unrelated_name", 0},
	}
	for _, c := range cases {
		if got := SeriesNumber(c.id); got != c.want {
			t.Errorf("SeriesNumber(%q) = %d, want %d", c.id, got, c.want)
		}
	}
}

func TestIsDateDir(t *testing.T) {
	if !IsDateDir("20240115") {
		t.Error("20240115 should be a date dir")
	}
	for _, s := range []string{"2024011", "202401155", "2024-01-15", "longform"} {
		if IsDateDir(s) {
			t.Errorf("%q should not be a date dir", s)
		}
	}
}
