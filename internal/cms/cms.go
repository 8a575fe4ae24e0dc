package cms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

const defaultAuthor = "JobBase Team"

var (
	ErrUnknownCategory = errors.New("Invalid or missing category slug")
	ErrPostNotFound    = errors.New("Post not found")
)

// Cache is the in-process response cache shared with the rest of the server
type Cache interface {
	CacheGet(key string) ([]byte, bool)
	CacheSet(key string, val []byte) error
}

type PostSummary struct {
	ID            int     `json:"id"`
	Title         string  `json:"title"`
	Slug          string  `json:"slug"`
	Date          string  `json:"date"`
	FeaturedImage *string `json:"featured_image"`
	CategorySlug  string  `json:"category_slug"`
	Excerpt       string  `json:"excerpt"`
}

type Author struct {
	Name   string  `json:"name"`
	Avatar *string `json:"avatar"`
}

type Tag struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Post struct {
	ID            int     `json:"id"`
	Title         string  `json:"title"`
	Excerpt       string  `json:"excerpt"`
	Content       string  `json:"content"`
	Slug          string  `json:"slug"`
	Date          string  `json:"date"`
	Modified      string  `json:"modified"`
	FeaturedImage *string `json:"featured_image"`
	Author        Author  `json:"author"`
	Tags          []Tag   `json:"tags"`
}

type rendered struct {
	Rendered string `json:"rendered"`
}

type wpTerm struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Taxonomy string `json:"taxonomy"`
}

type wpPost struct {
	ID       int      `json:"id"`
	Date     string   `json:"date"`
	Modified string   `json:"modified"`
	Slug     string   `json:"slug"`
	Title    rendered `json:"title"`
	Excerpt  rendered `json:"excerpt"`
	Content  rendered `json:"content"`
	Embedded struct {
		Author []struct {
			Name       string            `json:"name"`
			AvatarURLs map[string]string `json:"avatar_urls"`
		} `json:"author"`
		FeaturedMedia []struct {
			SourceURL string `json:"source_url"`
		} `json:"wp:featuredmedia"`
		Terms [][]wpTerm `json:"wp:term"`
	} `json:"_embedded"`
}

// Client reads posts from a WordPress REST endpoint
type Client struct {
	baseURL    string
	categories map[string]int
	perPage    int
	cache      Cache
	client     http.Client
	policy     *bluemonday.Policy
}

func NewClient(baseURL string, categories map[string]int, perPage int, cache Cache) Client {
	policy := bluemonday.UGCPolicy()
	policy.AllowStyling()
	policy.RequireNoFollowOnLinks(true)
	policy.RequireNoReferrerOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	return Client{
		baseURL:    baseURL,
		categories: categories,
		perPage:    perPage,
		cache:      cache,
		client:     http.Client{Timeout: 10 * time.Second},
		policy:     policy,
	}
}

func (c Client) CategoryPosts(ctx context.Context, slug string) ([]PostSummary, error) {
	categoryID, ok := c.categories[slug]
	if !ok || slug == "" {
		return nil, ErrUnknownCategory
	}
	q := url.Values{}
	q.Set("categories", strconv.Itoa(categoryID))
	q.Set("per_page", strconv.Itoa(c.perPage))
	q.Set("_embed", "")
	posts, err := c.fetch(ctx, "category:"+slug, q)
	if err != nil {
		return nil, err
	}
	res := make([]PostSummary, 0, len(posts))
	for _, p := range posts {
		res = append(res, PostSummary{
			ID:            p.ID,
			Title:         textOf(p.Title.Rendered),
			Slug:          p.Slug,
			Date:          p.Date,
			FeaturedImage: featuredImage(p),
			CategorySlug:  slug,
			Excerpt:       textOf(p.Excerpt.Rendered),
		})
	}
	return res, nil
}

func (c Client) Post(ctx context.Context, slug string) (Post, error) {
	if strings.TrimSpace(slug) == "" {
		return Post{}, ErrPostNotFound
	}
	q := url.Values{}
	q.Set("slug", slug)
	q.Set("_embed", "")
	posts, err := c.fetch(ctx, "post:"+slug, q)
	if err != nil {
		return Post{}, err
	}
	if len(posts) == 0 {
		return Post{}, ErrPostNotFound
	}
	p := posts[0]
	author := Author{Name: defaultAuthor}
	if len(p.Embedded.Author) > 0 {
		if name := strings.TrimSpace(p.Embedded.Author[0].Name); name != "" {
			author.Name = name
		}
		if avatar, ok := p.Embedded.Author[0].AvatarURLs["96"]; ok && avatar != "" {
			author.Avatar = &avatar
		}
	}
	tags := make([]Tag, 0)
	for _, group := range p.Embedded.Terms {
		for _, t := range group {
			if t.Taxonomy == "post_tag" {
				tags = append(tags, Tag{ID: t.ID, Name: t.Name, Slug: t.Slug})
			}
		}
	}
	return Post{
		ID:            p.ID,
		Title:         textOf(p.Title.Rendered),
		Excerpt:       c.policy.Sanitize(p.Excerpt.Rendered),
		Content:       c.policy.Sanitize(p.Content.Rendered),
		Slug:          p.Slug,
		Date:          p.Date,
		Modified:      p.Modified,
		FeaturedImage: featuredImage(p),
		Author:        author,
		Tags:          tags,
	}, nil
}

func (c Client) fetch(ctx context.Context, cacheKey string, q url.Values) ([]wpPost, error) {
	body, cached := c.cache.CacheGet("cms:" + cacheKey)
	if !cached {
		// wordpress expects a bare _embed flag
		rawQuery := strings.Replace(q.Encode(), "_embed=", "_embed", 1)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+rawQuery, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		res, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer res.Body.Close()
		if res.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("cms returned status code %d for %s", res.StatusCode, cacheKey)
		}
		body, err = io.ReadAll(res.Body)
		if err != nil {
			return nil, err
		}
	}
	var posts []wpPost
	if err := json.Unmarshal(body, &posts); err != nil {
		return nil, fmt.Errorf("unable to decode cms response: %w", err)
	}
	if !cached {
		// only well formed responses are cached
		c.cache.CacheSet("cms:"+cacheKey, body)
	}
	return posts, nil
}

func featuredImage(p wpPost) *string {
	if len(p.Embedded.FeaturedMedia) == 0 || p.Embedded.FeaturedMedia[0].SourceURL == "" {
		return nil
	}
	src := p.Embedded.FeaturedMedia[0].SourceURL
	return &src
}

// textOf returns the visible text of a rendered html fragment
func textOf(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
