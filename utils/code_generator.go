package utils

import (
	"crypto/rand"
	mrand "math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
)

// 字符集常量，去掉了容易混淆的0/O和1/I
const charset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// randRead 随机源，测试中可替换
var randRead = rand.Read

// GenerateRandomCode 生成指定长度的随机字符码
func GenerateRandomCode(length int) string {
	code := make([]byte, length)

	if _, err := randRead(code); err != nil {
		// 系统随机源不可用时退回到进程内的伪随机数
		for i := range code {
			code[i] = charset[mrand.IntN(len(charset))]
		}
		return string(code)
	}

	// 将随机字节映射到字符集
	for i := range code {
		code[i] = charset[int(code[i])%len(charset)]
	}

	return string(code)
}

// GenerateInviteCode 生成团队邀请码
func GenerateInviteCode() string {
	return GenerateRandomCode(8)
}

// GenerateMemberCode 生成成员个人邀请码
func GenerateMemberCode() string {
	return GenerateRandomCode(6)
}

// GenerateContractNo 生成合同编号，格式：HT + 日期 + 8位UUID片段
func GenerateContractNo(now time.Time) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "HT" + now.Format("20060102") + id[:8]
}
