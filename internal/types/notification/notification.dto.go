package notification

type RegisterDeviceRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

func (r RegisterDeviceRequest) ValidPlatform() bool {
	switch r.Platform {
	case "ios", "android", "web":
		return true
	}
	return false
}
