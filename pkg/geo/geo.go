package geo

import (
	"net"
	"strings"

	"github.com/oschwald/geoip2-golang"
)

// Unknown 查询失败时的占位值
const Unknown = "Unknown"

// DefaultFallbackIP 本地 / 内网请求用于定位的公网 IP
const DefaultFallbackIP = "122.160.0.1"

// Location IP 定位结果
type Location struct {
	IP      string `json:"ip"`
	Country string `json:"country"`
	Region  string `json:"region"`
	City    string `json:"city"`
}

// Locator IP 定位接口
type Locator interface {
	Locate(ip string) Location
}

// GeoIPLocator 基于 MaxMind GeoLite2/GeoIP2 City 数据库
type GeoIPLocator struct {
	reader *geoip2.Reader
}

// Open 打开 mmdb 文件
func Open(path string) (*GeoIPLocator, error) {
	r, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	return &GeoIPLocator{reader: r}, nil
}

func (l *GeoIPLocator) Close() error {
	return l.reader.Close()
}

// Locate 查询失败或 IP 非法时国家为 Unknown，地区和城市为空
func (l *GeoIPLocator) Locate(ip string) Location {
	loc := unknown(ip)
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return loc
	}
	rec, err := l.reader.City(parsed)
	if err != nil {
		return loc
	}
	if name := rec.Country.Names["en"]; name != "" {
		loc.Country = name
	}
	if len(rec.Subdivisions) > 0 {
		if name := rec.Subdivisions[0].Names["en"]; name != "" {
			loc.Region = name
		}
	}
	if name := rec.City.Names["en"]; name != "" {
		loc.City = name
	}
	return loc
}

// NopLocator 未配置数据库时使用
type NopLocator struct{}

func (NopLocator) Locate(ip string) Location {
	return unknown(ip)
}

func unknown(ip string) Location {
	return Location{IP: ip, Country: Unknown}
}

// ClientIP 取 X-Forwarded-For 第一跳，否则使用 remoteAddr；
// 回环或内网地址替换为 fallback
func ClientIP(forwardedFor, remoteAddr, fallback string) string {
	ip := ""
	if forwardedFor != "" {
		ip = strings.TrimSpace(strings.Split(forwardedFor, ",")[0])
	}
	if ip == "" {
		ip = remoteAddr
		if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
			ip = host
		}
	}
	if fallback == "" {
		fallback = DefaultFallbackIP
	}
	parsed := net.ParseIP(ip)
	if parsed == nil || parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified() {
		return fallback
	}
	return parsed.String()
}
