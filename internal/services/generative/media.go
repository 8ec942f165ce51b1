package generative

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Image is a generated still frame.
type Image struct {
	URL string `json:"url"`
}

// Speech is a synthesized voice clip.
type Speech struct {
	URL             string  `json:"url"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// SpeechRequest describes one voice line to synthesize.
type SpeechRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}

// VideoRequest describes a video synthesis job.
type VideoRequest struct {
	Prompt     string   `json:"prompt"`
	FrameURLs  []string `json:"frame_urls,omitempty"`
	AudioURLs  []string `json:"audio_urls,omitempty"`
	Duration   int      `json:"duration_seconds,omitempty"`
	Resolution string   `json:"resolution,omitempty"`
	Format     string   `json:"format,omitempty"`
}

// Video is the result of a finished synthesis job.
type Video struct {
	URL             string  `json:"url"`
	DurationSeconds int     `json:"duration_seconds"`
	Resolution      string  `json:"resolution"`
	SizeBytes       int64   `json:"size_bytes"`
	QualityScore    float64 `json:"quality_score"`
}

// GenerateImage produces one image for the given prompt.
func (c *Client) GenerateImage(ctx context.Context, prompt, size string) (Image, error) {
	var empty Image
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return empty, errors.New("image generation: prompt required")
	}

	payload := struct {
		Model  string `json:"model"`
		Prompt string `json:"prompt"`
		Size   string `json:"size,omitempty"`
		N      int    `json:"n"`
	}{Model: c.cfg.ImageModel, Prompt: prompt, Size: size, N: 1}

	var result Image
	err := c.withRetry(ctx, "image generation", func() error {
		var resp struct {
			Data []Image `json:"data"`
			Error *struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := c.postJSON(ctx, "/images/generations", payload, &resp); err != nil {
			return err
		}
		if resp.Error != nil {
			return fmt.Errorf("image generation: api error: %s", strings.TrimSpace(resp.Error.Message))
		}
		if len(resp.Data) == 0 || strings.TrimSpace(resp.Data[0].URL) == "" {
			return errors.New("image generation: empty result")
		}
		result = resp.Data[0]
		return nil
	})
	return result, err
}

// SynthesizeSpeech produces one voice clip.
func (c *Client) SynthesizeSpeech(ctx context.Context, req SpeechRequest) (Speech, error) {
	var empty Speech
	if strings.TrimSpace(req.Text) == "" {
		return empty, errors.New("speech synthesis: text required")
	}

	payload := struct {
		Model string `json:"model"`
		Text  string `json:"text"`
		Voice string `json:"voice,omitempty"`
	}{Model: c.cfg.SpeechModel, Text: req.Text, Voice: req.Voice}

	var result Speech
	err := c.withRetry(ctx, "speech synthesis", func() error {
		var resp struct {
			Speech
			Error *struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := c.postJSON(ctx, "/audio/speech", payload, &resp); err != nil {
			return err
		}
		if resp.Error != nil {
			return fmt.Errorf("speech synthesis: api error: %s", strings.TrimSpace(resp.Error.Message))
		}
		if strings.TrimSpace(resp.URL) == "" {
			return errors.New("speech synthesis: empty result")
		}
		result = resp.Speech
		return nil
	})
	return result, err
}

type videoTaskResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
	Video  *Video `json:"video,omitempty"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// SynthesizeVideo submits a video synthesis job and polls until it finishes.
// The poll loop respects the context deadline; callers bound the total wait
// through their stage timeout.
func (c *Client) SynthesizeVideo(ctx context.Context, req VideoRequest) (Video, error) {
	var empty Video
	if strings.TrimSpace(req.Prompt) == "" {
		return empty, errors.New("video synthesis: prompt required")
	}

	payload := struct {
		Model string `json:"model"`
		VideoRequest
	}{Model: c.cfg.VideoModel, VideoRequest: req}

	var submitted videoTaskResponse
	err := c.withRetry(ctx, "video synthesis submit", func() error {
		submitted = videoTaskResponse{}
		if err := c.postJSON(ctx, "/video/synthesis", payload, &submitted); err != nil {
			return err
		}
		if submitted.Error != nil {
			return fmt.Errorf("video synthesis: api error: %s", strings.TrimSpace(submitted.Error.Message))
		}
		if strings.TrimSpace(submitted.TaskID) == "" {
			return errors.New("video synthesis: no task id")
		}
		return nil
	})
	if err != nil {
		return empty, err
	}

	return c.pollVideoTask(ctx, submitted.TaskID)
}

func (c *Client) pollVideoTask(ctx context.Context, taskID string) (Video, error) {
	var empty Video
	for {
		var task videoTaskResponse
		err := c.withRetry(ctx, "video synthesis poll", func() error {
			task = videoTaskResponse{}
			return c.getJSON(ctx, "/video/tasks/"+taskID, &task)
		})
		if err != nil {
			return empty, err
		}
		if task.Error != nil {
			return empty, fmt.Errorf("video synthesis: task %s: %s", taskID, strings.TrimSpace(task.Error.Message))
		}

		switch strings.ToLower(strings.TrimSpace(task.Status)) {
		case "succeeded":
			if task.Video == nil || strings.TrimSpace(task.Video.URL) == "" {
				return empty, fmt.Errorf("video synthesis: task %s succeeded without output", taskID)
			}
			return *task.Video, nil
		case "failed":
			return empty, fmt.Errorf("video synthesis: task %s failed", taskID)
		case "pending", "running", "":
			if err := c.sleep(ctx, c.pollInterval); err != nil {
				return empty, err
			}
		default:
			return empty, fmt.Errorf("video synthesis: task %s reported unknown status %q", taskID, task.Status)
		}
	}
}
