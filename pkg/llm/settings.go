package llm

// Settings selects the upstream provider the backend relays to.
type Settings struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	BaseURL  string `json:"base_url"`
	APIKey   string `json:"api_key"`
}

// MaskKey hides all but the first and last four characters of key. Keys of
// eight characters or fewer are fully hidden.
func MaskKey(key string) string {
	switch {
	case key == "":
		return ""
	case len(key) > 8:
		return key[:4] + "****" + key[len(key)-4:]
	default:
		return "****"
	}
}

// Masked returns a copy of s safe to show to clients.
func (s Settings) Masked() Settings {
	s.APIKey = MaskKey(s.APIKey)
	return s
}

// Preset describes a known provider endpoint.
type Preset struct {
	Name    string   `json:"name"`
	BaseURL string   `json:"base_url"`
	Models  []string `json:"models"`
}

// Presets returns the provider endpoints offered in the settings picker.
// Every entry speaks the OpenAI-compatible chat completions API.
func Presets() []Preset {
	return []Preset{
		{
			Name:    "OpenAI",
			BaseURL: "https://api.openai.com/v1",
			Models:  []string{"gpt-4o", "gpt-4o-mini", "gpt-4-turbo", "gpt-4", "gpt-3.5-turbo"},
		},
		{
			Name:    "Moonshot (Kimi)",
			BaseURL: "https://api.moonshot.cn/v1",
			Models:  []string{"moonshot-v1-128k", "moonshot-v1-32k", "moonshot-v1-8k"},
		},
		{
			Name:    "DeepSeek",
			BaseURL: "https://api.deepseek.com/v1",
			Models:  []string{"deepseek-chat", "deepseek-coder"},
		},
		{
			Name:    "Zhipu",
			BaseURL: "https://open.bigmodel.cn/api/paas/v4",
			Models:  []string{"glm-4-plus", "glm-4", "glm-4-flash"},
		},
		{
			Name:    "Qwen",
			BaseURL: "https://dashscope.aliyuncs.com/compatible-mode/v1",
			Models:  []string{"qwen-turbo", "qwen-plus", "qwen-max"},
		},
		{
			Name:    "Baichuan",
			BaseURL: "https://api.baichuan-ai.com/v1",
			Models:  []string{"Baichuan4", "Baichuan3-Turbo", "Baichuan2-Turbo"},
		},
		{
			Name:    "Ollama (local)",
			BaseURL: "http://localhost:11434/v1",
			Models:  []string{"llama3", "llama2", "mistral", "codellama", "qwen2"},
		},
		{
			Name:    "Custom",
			BaseURL: "",
			Models:  []string{},
		},
	}
}
