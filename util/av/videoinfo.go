package av

import (
	"github.com/tidwall/gjson"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

func GetVideoInfo(filePath string) (int64, int64, int64) {
	probeData, err := ffmpeg.Probe(filePath)
	if err != nil {
		return 0, 0, 0
	}
	return parseProbeData(probeData)
}

func parseProbeData(probeData string) (int64, int64, int64) {
	duration := gjson.Get(probeData, "format.duration").Float()
	var width, height int64
	for _, stream := range gjson.Get(probeData, "streams").Array() {
		if stream.Get("codec_type").String() != "video" {
			continue
		}
		width = stream.Get("width").Int()
		height = stream.Get("height").Int()
		break
	}
	return int64(duration), width, height
}
