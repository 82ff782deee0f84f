package index

import (
	"bytes"
	"encoding/binary"
	"time"
)

// key = invTime(8) + 0x00 + fullPath
// 取反让 cursor 正序遍历时天然按时间倒序出结果。
func makeRecencyKey(date, timestamp string, fullPath string) []byte {
	invTime := ^uint64(publishNano(date, timestamp))

	buf := make([]byte, 0, 8+1+len(fullPath))
	tmp := make([]byte, 8)
	binary.BigEndian.PutUint64(tmp, invTime)
	buf = append(buf, tmp...)
	buf = append(buf, 0x00)
	buf = append(buf, []byte(fullPath)...)
	return buf
}

// publishNano 把目录约定里的 YYYYMMDD + HHMMSS 合成纳秒时间。
// 解析不出来的退回 0，排在最末尾。
func publishNano(date, timestamp string) int64 {
	if len(timestamp) != 6 {
		timestamp = "000000"
	}
	t, err := time.Parse("20060102150405", date+timestamp)
	if err != nil {
		return 0
	}
	return t.UnixNano()
}

func pathFromRecencyKey(k []byte) string {
	// invTime(8) + 0x00 + fullPath
	if len(k) < 8+2 {
		return ""
	}
	i := bytes.IndexByte(k[8:], 0x00)
	if i < 0 {
		return ""
	}
	pos := 8 + i
	if pos+1 >= len(k) {
		return ""
	}
	return string(k[pos+1:])
}
