package rtspserver

import (
	"encoding/base64"
	"testing"

	"github.com/oxflow/rtspflow/pkg/codec/h264"
	"github.com/oxflow/rtspflow/pkg/codec/h265"
	"github.com/oxflow/rtspflow/pkg/media"
	"github.com/oxflow/rtspflow/pkg/sdp"
)

func TestNewPathConfigAppliesDefaults(t *testing.T) {
	pc := NewPathConfig("cam1", media.CodecH264, 0, 0, 0)
	if pc.Width != sdp.DefaultWidth || pc.Height != sdp.DefaultHeight || pc.FPS != sdp.DefaultFramerate {
		t.Fatalf("expected defaults, got %dx%d@%d", pc.Width, pc.Height, pc.FPS)
	}
}

func TestObserveKeyframeFillsH264ParameterSetsOnce(t *testing.T) {
	pc := NewPathConfig("cam1", media.CodecH264, 1280, 720, 30)

	sps := []byte{byte(h264.NALUTypeSPS), 0x01}
	pps := []byte{byte(h264.NALUTypePPS), 0x02}
	pc.observeKeyframe(media.CodecH264, [][]byte{sps, pps})

	info := pc.mediaInfo(96, "trackID=0")
	want := []string{base64.StdEncoding.EncodeToString(sps), base64.StdEncoding.EncodeToString(pps)}
	if len(info.SpropParameterSets) != 2 || info.SpropParameterSets[0] != want[0] || info.SpropParameterSets[1] != want[1] {
		t.Fatalf("expected sprop-parameter-sets %v, got %v", want, info.SpropParameterSets)
	}

	// A later keyframe with different parameter sets must not overwrite
	// the first one captured.
	pc.observeKeyframe(media.CodecH264, [][]byte{{byte(h264.NALUTypeSPS), 0x99}})
	info2 := pc.mediaInfo(96, "trackID=0")
	if info2.SpropParameterSets[0] != want[0] {
		t.Fatal("expected the first-captured SPS to stick")
	}
}

func TestObserveKeyframeFillsH265ParameterSets(t *testing.T) {
	pc := NewPathConfig("cam1", media.CodecH265, 1920, 1080, 30)

	vps := []byte{byte(h265.NALUTypeVPS) << 1, 0x00, 0x01}
	sps := []byte{byte(h265.NALUTypeSPS) << 1, 0x00, 0x02}
	pps := []byte{byte(h265.NALUTypePPS) << 1, 0x00, 0x03}
	pc.observeKeyframe(media.CodecH265, [][]byte{vps, sps, pps})

	info := pc.mediaInfo(97, "trackID=0")
	if info.SpropVPS == "" || info.SpropSPS == "" || info.SpropPPS == "" {
		t.Fatalf("expected VPS/SPS/PPS all populated, got %+v", info)
	}
}

func TestMediaInfoReportsControlAndCodec(t *testing.T) {
	pc := NewPathConfig("cam1", media.CodecH264, 640, 480, 15)
	info := pc.mediaInfo(96, "trackID=0")
	if info.Control != "trackID=0" {
		t.Fatalf("expected control trackID=0, got %q", info.Control)
	}
	if info.Codec != sdp.CodecH264 {
		t.Fatalf("expected H264, got %v", info.Codec)
	}
	if info.Width != 640 || info.Height != 480 || info.Framerate != 15 {
		t.Fatalf("expected 640x480@15, got %dx%d@%d", info.Width, info.Height, info.Framerate)
	}
}
