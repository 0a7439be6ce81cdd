// Package messages holds all notification copy. Pure string mapping, no I/O.
package messages

import (
	"strings"

	"github.com/udtalk/push-backend/internal/firebase/structs"
)

const (
	bodyJapanese = "参加しているトークに新しい発話がありました。"
	bodyEnglish  = "Your joined talks have new messages."

	watchBodyEnglish = "New utterances are available on Apple Watch."

	titleJapanese = "UDトーク"
	titleEnglish  = "UDTalk"
)

func isJapanese(languageCode string) bool {
	return strings.HasPrefix(languageCode, "ja-")
}

func isWatch(deviceType string) bool {
	return deviceType == structs.TypeWatchOS || deviceType == structs.TypeWatchOSViaIOS
}

//ForApple Returns the new-utterance message for an Apple device. Apple pushes
//carry a body only; watch variants get platform-qualified phrasing.
func ForApple(languageCode string, deviceType string) string {
	if isJapanese(languageCode) {
		if isWatch(deviceType) {
			return "Apple Watchで" + bodyJapanese
		}
		return bodyJapanese
	}

	if isWatch(deviceType) {
		return watchBodyEnglish
	}

	return bodyEnglish
}

//ForAndroid Returns the new-utterance notification title and body for Android.
func ForAndroid(languageCode string) (string, string) {
	if isJapanese(languageCode) {
		return titleJapanese, bodyJapanese
	}

	return titleEnglish, bodyEnglish
}
