package domain

import (
	"regexp"
	"time"
)

// Story types a content item can carry. Full-HTML stories bypass the
// excerpt renderer downstream.
const (
	StoryTypeDefault  = "default"
	StoryTypeFullHTML = "full_html"
)

var (
	urlPattern = regexp.MustCompile(`(?i)^http(s?)://(\w+:?\w*@)?(\S+)(:[0-9]+)?(/|/([\w#!:.?+=&%@!\-/]))?`)
	tagPattern = regexp.MustCompile(`^[-a-zA-Z0-9_ ]+$`)
)

// Content is a shared item model for user stories, syndicated articles and
// newswire posts. Articles and newswire posts reference their origin record;
// plain stories stand alone and must carry a link.
type Content struct {
	ID         string
	AuthorID   string
	Title      string
	Caption    string
	URL        string
	ImageURL   string
	StoryType  string
	Tags       []string
	ArticleID  string
	NewswireID string
	VotesTally int64
	IsFeatured bool
	FeaturedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type CreateContentInput struct {
	AuthorID   string
	Title      string
	Caption    string
	URL        string
	ImageURL   string
	StoryType  string
	Tags       []string
	ArticleID  string
	NewswireID string
}

func NewContent(in CreateContentInput, now time.Time) (*Content, error) {
	verr := &ValidationError{}
	if in.Title == "" {
		verr.Add("title", "is required")
	}
	if in.Caption == "" {
		verr.Add("caption", "is required")
	}
	isStory := in.ArticleID == "" && in.NewswireID == ""
	if isStory && in.URL == "" {
		verr.Add("url", "is required")
	}
	if in.URL != "" && !urlPattern.MatchString(in.URL) {
		verr.Add("url", "should look like a URL")
	}
	if in.ImageURL != "" && !urlPattern.MatchString(in.ImageURL) {
		verr.Add("image_url", "should look like a URL")
	}
	for _, tag := range in.Tags {
		if !tagPattern.MatchString(tag) {
			verr.Add("tags", "can be alphanumeric characters or -_ or a blank space")
			break
		}
	}
	if verr.HasViolations() {
		return nil, verr
	}

	storyType := in.StoryType
	if storyType == "" {
		storyType = StoryTypeDefault
	}

	return &Content{
		AuthorID:   in.AuthorID,
		Title:      in.Title,
		Caption:    in.Caption,
		URL:        in.URL,
		ImageURL:   in.ImageURL,
		StoryType:  storyType,
		Tags:       in.Tags,
		ArticleID:  in.ArticleID,
		NewswireID: in.NewswireID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (c *Content) IsArticle() bool  { return c.ArticleID != "" }
func (c *Content) IsNewswire() bool { return c.NewswireID != "" }
func (c *Content) IsStory() bool    { return !c.IsArticle() && !c.IsNewswire() }
func (c *Content) FullHTML() bool   { return c.StoryType == StoryTypeFullHTML }

// ToggleFeatured flips the featured flag, stamping the time when the item
// becomes featured.
func (c *Content) ToggleFeatured(now time.Time) {
	c.IsFeatured = !c.IsFeatured
	if c.IsFeatured {
		c.FeaturedAt = &now
	} else {
		c.FeaturedAt = nil
	}
	c.UpdatedAt = now
}

func (c *Content) String() string { return c.Title }
