package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

// GenerateRequest is the body of the metered generation endpoint.
type GenerateRequest struct {
	SceneType string `json:"sceneType" validate:"required"`
	WorldType string `json:"worldType" validate:"required"`
	Talent    string `json:"talent,omitempty"`
	Event     string `json:"event,omitempty"`
	UserID    string `json:"userId,omitempty"`
}

// generatedImage is the cached payload on the metered path: just the
// rendered image URL, keyed by the exact parameter tuple so identical
// requests reuse one paid call.
type generatedImage struct {
	URL string `json:"url"`
}

var scenePrompts = map[string]string{
	"修仙": "云雾缭绕的仙山，古典中国画风格，灵气飘渺",
	"武侠": "江湖客栈与竹林剑影，水墨画风格",
	"都市": "霓虹闪烁的现代都市夜景，赛博朋克色调",
	"古代": "雕梁画栋的古代宫殿，工笔画风格",
	"星际": "浩瀚星空与未来飞船，科幻插画风格",
}

var worldPrompts = map[string]string{
	"凡人界": "市井烟火气息",
	"灵界":  "漂浮的灵石与发光符文",
	"魔界":  "暗红色天空与嶙峋山石",
	"仙界":  "金色云海与玉石楼阁",
}

var talentPrompts = map[string]string{
	"天灵根": "主角周身环绕五彩灵光",
	"剑骨":  "背负古剑的孤傲身影",
	"慧眼":  "双目泛着微光洞察万物",
}

// buildPrompt composes the image prompt from the enumerated
// vocabularies. Unknown values are used verbatim so the endpoint
// degrades to a literal description instead of rejecting.
func buildPrompt(req GenerateRequest) string {
	parts := make([]string, 0, 4)

	if p, ok := scenePrompts[req.SceneType]; ok {
		parts = append(parts, p)
	} else {
		parts = append(parts, req.SceneType)
	}
	if p, ok := worldPrompts[req.WorldType]; ok {
		parts = append(parts, p)
	} else {
		parts = append(parts, req.WorldType)
	}
	if req.Talent != "" {
		if p, ok := talentPrompts[req.Talent]; ok {
			parts = append(parts, p)
		} else {
			parts = append(parts, req.Talent)
		}
	}
	if req.Event != "" {
		parts = append(parts, req.Event)
	}

	return strings.Join(parts, "，") + "，高清插画，细节丰富"
}

func generateCacheKey(req GenerateRequest) string {
	return fmt.Sprintf("generate:%s|%s|%s|%s", req.SceneType, req.WorldType, req.Talent, req.Event)
}

const (
	defaultGenerateBaseURL = "https://ark.cn-beijing.volces.com/api/v3"
	generateModel          = "doubao-seedream-3-0-t2i-250415"
	generateTimeout        = 30 * time.Second
)

// GenerateClient calls the paid image-generation provider.
type GenerateClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	log     *log.Logger
}

func NewGenerateClient(apiKey string) *GenerateClient {
	return &GenerateClient{
		apiKey:  apiKey,
		baseURL: defaultGenerateBaseURL,
		http:    &http.Client{Timeout: generateTimeout},
		log:     log.New(os.Stderr, "(generate) ", log.LstdFlags),
	}
}

// Configured reports whether an API key is present. Absence surfaces
// to the client as a config error, never as a silent fallback.
func (c *GenerateClient) Configured() bool {
	return c.apiKey != ""
}

type generateAPIRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
}

type generateAPIResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

func (c *GenerateClient) Generate(prompt string) (string, error) {
	payload, err := json.Marshal(generateAPIRequest{
		Model:          generateModel,
		Prompt:         prompt,
		Size:           "1024x1024",
		ResponseFormat: "url",
	})
	if err != nil {
		return "", fmt.Errorf("marshal generation request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/images/generations", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("call generation provider: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read generation response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("generation provider returned status %d", resp.StatusCode)
	}

	var out generateAPIResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode generation response: %w", err)
	}
	if len(out.Data) == 0 || out.Data[0].URL == "" {
		return "", errors.New("generation response has no image url")
	}
	return out.Data[0].URL, nil
}
