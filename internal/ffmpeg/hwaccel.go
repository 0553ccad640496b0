package ffmpeg

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
)

// HWCapabilities is the cached hardware detection result used by burns.
type HWCapabilities struct {
	HWAccel   string `json:"hwaccel"` // "vaapi", "nvenc", "qsv", "videotoolbox" or "none"
	Device    string `json:"device"`  // render node for VAAPI, "" otherwise
	Encoder   string `json:"encoder"` // encoder used for burns
	CanDecode bool   `json:"can_decode"`
}

var (
	hwCaps     *HWCapabilities
	hwCapsOnce sync.Once
)

// DetectHardware probes for a working h264 hardware encoder and caches the
// result. Call once at startup; skip the call entirely to force software
// encoding.
func DetectHardware() *HWCapabilities {
	hwCapsOnce.Do(func() {
		hwCaps = detectHardware()
	})
	return hwCaps
}

// GetCapabilities returns the cached capabilities, nil when detection was
// never run (software-only mode).
func GetCapabilities() *HWCapabilities {
	return hwCaps
}

func detectHardware() *HWCapabilities {
	caps := &HWCapabilities{HWAccel: "none", Encoder: "libx264"}

	available := listH264Encoders()

	// VAAPI first: it is the only path that needs a device node, and the
	// common case on Intel hardware.
	if device := findVAAPIDevice(); device != "" {
		log.Printf("[ffmpeg] found VAAPI device: %s (%s)", device, gpuName(device))
		if available["h264_vaapi"] && testVAAPIEncoder(device, "h264_vaapi") {
			caps.HWAccel = "vaapi"
			caps.Device = device
			caps.Encoder = "h264_vaapi"
			caps.CanDecode = testVAAPIDecoder(device)
			log.Printf("[ffmpeg] hardware encode available: h264_vaapi (decode: %v)", caps.CanDecode)
			return caps
		}
		log.Printf("[ffmpeg] h264_vaapi not usable")
	}

	// The remaining encoders take system-memory frames, so a plain one-frame
	// smoke encode is enough.
	for _, encoder := range []string{"h264_nvenc", "h264_qsv", "h264_videotoolbox"} {
		if !available[encoder] {
			continue
		}
		if !testEncoder(encoder) {
			log.Printf("[ffmpeg] %s present but not usable", encoder)
			continue
		}
		caps.HWAccel = strings.TrimPrefix(encoder, "h264_")
		caps.Encoder = encoder
		log.Printf("[ffmpeg] hardware encode available: %s", encoder)
		return caps
	}

	log.Printf("[ffmpeg] no hardware encoder found, burns use libx264")
	return caps
}

// listH264Encoders parses `ffmpeg -encoders` for the h264 family compiled in.
func listH264Encoders() map[string]bool {
	encoders := make(map[string]bool)
	output, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").Output()
	if err != nil {
		return encoders
	}
	for _, line := range strings.Split(string(output), "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && strings.HasPrefix(fields[1], "h264_") {
			encoders[fields[1]] = true
		}
	}
	return encoders
}

// findVAAPIDevice looks for a render node under /dev/dri/.
func findVAAPIDevice() string {
	candidates := []string{
		"/dev/dri/renderD128",
		"/dev/dri/renderD129",
	}
	for _, dev := range candidates {
		if _, err := os.Stat(dev); err == nil {
			return dev
		}
	}
	return ""
}

// gpuName identifies the GPU behind a render node via sysfs, for logs only.
func gpuName(device string) string {
	uevent := filepath.Join("/sys/class/drm", filepath.Base(device), "device", "uevent")
	data, err := os.ReadFile(uevent)
	if err != nil {
		return "unknown GPU"
	}

	var vendorID, deviceID string
	for _, line := range strings.Split(string(data), "\n") {
		if ids, ok := strings.CutPrefix(line, "PCI_ID="); ok {
			if parts := strings.Split(ids, ":"); len(parts) == 2 {
				vendorID = strings.ToLower(parts[0])
				deviceID = strings.ToLower(parts[1])
			}
		}
	}
	if vendorID == "" {
		return "unknown GPU"
	}
	if vendorID == "8086" {
		if name, ok := intelGPUNames[deviceID]; ok {
			return name
		}
		return "Intel GPU " + deviceID
	}
	return "GPU " + vendorID + ":" + deviceID
}

// intelGPUNames covers the discrete Arc cards commonly used for VAAPI encode.
var intelGPUNames = map[string]string{
	"56a0": "Intel Arc A770M",
	"56a1": "Intel Arc A730M",
	"56a5": "Intel Arc A380",
	"56a6": "Intel Arc A310",
	"5690": "Intel Arc A770",
	"5691": "Intel Arc A730M",
	"5692": "Intel Arc A750",
	"56c0": "Intel Arc B580",
	"56c1": "Intel Arc B570",
}

// testVAAPIEncoder runs a one-frame encode to verify the encoder works.
func testVAAPIEncoder(device, encoder string) bool {
	cmd := exec.Command("ffmpeg",
		"-hide_banner", "-loglevel", "error",
		"-init_hw_device", fmt.Sprintf("vaapi=hw:%s", device),
		"-f", "lavfi", "-i", "nullsrc=s=256x256:d=0.1:r=1",
		"-vf", "format=nv12,hwupload",
		"-c:v", encoder,
		"-frames:v", "1",
		"-f", "null", "-",
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		log.Printf("[ffmpeg] test %s failed: %v %s", encoder, err, strings.TrimSpace(string(output)))
		return false
	}
	return true
}

// testVAAPIDecoder checks whether VAAPI decoding is functional.
func testVAAPIDecoder(device string) bool {
	cmd := exec.Command("ffmpeg",
		"-hide_banner", "-loglevel", "error",
		"-hwaccel", "vaapi",
		"-hwaccel_device", device,
		"-f", "lavfi", "-i", "nullsrc=s=256x256:d=0.1:r=1",
		"-frames:v", "1",
		"-f", "null", "-",
	)
	return cmd.Run() == nil
}

// testEncoder smoke-tests an encoder that accepts system-memory frames.
func testEncoder(encoder string) bool {
	cmd := exec.Command("ffmpeg",
		"-hide_banner", "-loglevel", "error",
		"-f", "lavfi", "-i", "nullsrc=s=256x256:d=0.1:r=1",
		"-vf", "format=nv12",
		"-c:v", encoder,
		"-frames:v", "1",
		"-f", "null", "-",
	)
	return cmd.Run() == nil
}
