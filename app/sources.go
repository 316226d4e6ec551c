package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ImageResult is the unit returned to clients for every image endpoint.
type ImageResult struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	ImageURL   string `json:"imageUrl"`
	Author     string `json:"author"`
	SourceName string `json:"sourceName"`
}

// extracted is what a source's extraction rule pulls out of a raw
// provider response. Extraction never performs I/O.
type extracted struct {
	URL    string
	Title  string
	Author string
}

type extractFunc func(raw []byte) (extracted, error)

// SourceDescriptor describes one upstream image provider. Descriptors
// are immutable after startup.
type SourceDescriptor struct {
	Name     string
	Endpoint string
	Extract  extractFunc
}

// Registry holds the fixed provider list and hands out random
// selections from it.
type Registry struct {
	mu      sync.Mutex
	rng     *rand.Rand
	sources []SourceDescriptor
}

func newRegistry(rng *rand.Rand, sources ...SourceDescriptor) *Registry {
	return &Registry{rng: rng, sources: sources}
}

func (r *Registry) Len() int {
	return len(r.sources)
}

// All returns a copy of the full descriptor list.
func (r *Registry) All() []SourceDescriptor {
	out := make([]SourceDescriptor, len(r.sources))
	copy(out, r.sources)
	return out
}

// Pick returns n sources chosen uniformly at random. No source appears
// twice while n fits in the registry; repeats only happen once n
// exceeds the registry size.
func (r *Registry) Pick(n int) []SourceDescriptor {
	if n <= 0 || len(r.sources) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	shuffled := make([]SourceDescriptor, len(r.sources))
	copy(shuffled, r.sources)
	r.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	if n <= len(shuffled) {
		return shuffled[:n]
	}

	out := shuffled
	for len(out) < n {
		out = append(out, r.sources[r.rng.Intn(len(r.sources))])
	}
	return out
}

// PickOther returns a random source that is not the named one. It
// reports false when the registry holds no alternative.
func (r *Registry) PickOther(exclude string) (SourceDescriptor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	candidates := make([]SourceDescriptor, 0, len(r.sources))
	for _, s := range r.sources {
		if s.Name != exclude {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		return SourceDescriptor{}, false
	}
	return candidates[r.rng.Intn(len(candidates))], true
}

// ByDate deterministically maps a date string onto one source, so
// every caller sees the same pick for a given day.
func (r *Registry) ByDate(date string) SourceDescriptor {
	h := fnv.New32a()
	h.Write([]byte(date))
	return r.sources[int(h.Sum32())%len(r.sources)]
}

// newResultID builds a response-unique ID. Cached entries replay the
// ID stored with them instead of minting a new one.
func newResultID(sourceName string) string {
	return fmt.Sprintf("%s-%d-%s", sourceName, time.Now().UnixMilli(), uuid.NewString()[:8])
}

// ---------- Providers ----------

type loliconResponse struct {
	Error string `json:"error"`
	Data  []struct {
		Title  string `json:"title"`
		Author string `json:"author"`
		Urls   struct {
			Original string `json:"original"`
		} `json:"urls"`
	} `json:"data"`
}

func extractLolicon(raw []byte) (extracted, error) {
	var res loliconResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		return extracted{}, err
	}
	if len(res.Data) == 0 || res.Data[0].Urls.Original == "" {
		return extracted{}, errors.New("lolicon response has no image")
	}
	item := res.Data[0]
	return extracted{URL: item.Urls.Original, Title: item.Title, Author: item.Author}, nil
}

type waifuPicsResponse struct {
	URL string `json:"url"`
}

func extractWaifuPics(raw []byte) (extracted, error) {
	var res waifuPicsResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		return extracted{}, err
	}
	if res.URL == "" {
		return extracted{}, errors.New("waifu.pics response has no url")
	}
	return extracted{URL: res.URL, Title: "随机壁纸"}, nil
}

type waifuImResponse struct {
	Images []struct {
		URL    string `json:"url"`
		Artist struct {
			Name string `json:"name"`
		} `json:"artist"`
	} `json:"images"`
}

func extractWaifuIm(raw []byte) (extracted, error) {
	var res waifuImResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		return extracted{}, err
	}
	if len(res.Images) == 0 || res.Images[0].URL == "" {
		return extracted{}, errors.New("waifu.im response has no image")
	}
	img := res.Images[0]
	return extracted{URL: img.URL, Title: "随机壁纸", Author: img.Artist.Name}, nil
}

type nekosBestResponse struct {
	Results []struct {
		URL        string `json:"url"`
		ArtistName string `json:"artist_name"`
	} `json:"results"`
}

func extractNekosBest(raw []byte) (extracted, error) {
	var res nekosBestResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		return extracted{}, err
	}
	if len(res.Results) == 0 || res.Results[0].URL == "" {
		return extracted{}, errors.New("nekos.best response has no image")
	}
	item := res.Results[0]
	return extracted{URL: item.URL, Title: "随机壁纸", Author: item.ArtistName}, nil
}

type btstuResponse struct {
	ImgURL string `json:"imgurl"`
}

func extractBtstu(raw []byte) (extracted, error) {
	var res btstuResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		return extracted{}, err
	}
	if res.ImgURL == "" {
		return extracted{}, errors.New("btstu response has no imgurl")
	}
	return extracted{URL: res.ImgURL, Title: "随机壁纸"}, nil
}

func defaultSources() []SourceDescriptor {
	return []SourceDescriptor{
		{Name: "lolicon", Endpoint: "https://api.lolicon.app/setu/v2?r18=0", Extract: extractLolicon},
		{Name: "waifu.pics", Endpoint: "https://api.waifu.pics/sfw/waifu", Extract: extractWaifuPics},
		{Name: "waifu.im", Endpoint: "https://api.waifu.im/search?is_nsfw=false", Extract: extractWaifuIm},
		{Name: "nekos.best", Endpoint: "https://nekos.best/api/v2/neko", Extract: extractNekosBest},
		{Name: "btstu", Endpoint: "https://api.btstu.cn/sjbz/api.php?lx=dongman&format=json", Extract: extractBtstu},
	}
}
