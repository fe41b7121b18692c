package captcha

import (
	"github.com/mojocn/base64Captcha"
)

// 去掉易混淆字符 0 O o 1 I l
const alphabet = "23456789abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"

// Generator 返回题面文本和可渲染数据
type Generator interface {
	Generate() (answer, data string, err error)
}

// ImageGenerator PNG data URI
type ImageGenerator struct {
	driver *base64Captcha.DriverString
}

func NewImageGenerator(length, width, height int) *ImageGenerator {
	if length <= 0 {
		length = 6
	}
	if width <= 0 {
		width = 180
	}
	if height <= 0 {
		height = 60
	}
	d := base64Captcha.NewDriverString(
		height, width, 2,
		base64Captcha.OptionShowSlimeLine|base64Captcha.OptionShowHollowLine,
		length, alphabet, nil, nil, nil,
	)
	return &ImageGenerator{driver: d}
}

func (g *ImageGenerator) Generate() (string, string, error) {
	_, content, answer := g.driver.GenerateIdQuestionAnswer()
	item, err := g.driver.DrawCaptcha(content)
	if err != nil {
		return "", "", err
	}
	return answer, item.EncodeB64string(), nil
}
