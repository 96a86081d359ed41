package discovery

import (
	"fmt"
	"net"

	"github.com/hashicorp/consul/api"
)

// Registration 已注册的服务，用于退出时注销
type Registration struct {
	client *api.Client
	ID     string
}

// RegisterService 将服务注册到 Consul，使用 HTTP 健康检查
func RegisterService(serviceName string, servicePort int, consulAddr, healthPath string) (*Registration, error) {
	config := api.DefaultConfig()
	config.Address = consulAddr
	client, err := api.NewClient(config)
	if err != nil {
		return nil, err
	}

	// 不能注册 127.0.0.1，否则其他节点访问不到
	localIP, err := getOutboundIP()
	if err != nil {
		return nil, err
	}

	// ID 必须唯一，使用 "服务名-IP-端口"
	serviceID := fmt.Sprintf("%s-%s-%d", serviceName, localIP, servicePort)

	registration := &api.AgentServiceRegistration{
		ID:      serviceID,
		Name:    serviceName,
		Port:    servicePort,
		Address: localIP,
		Tags:    []string{"jewelry", "http"},
		Check: &api.AgentServiceCheck{
			HTTP:                           healthURL(localIP, servicePort, healthPath),
			Interval:                       "10s",
			Timeout:                        "5s",
			DeregisterCriticalServiceAfter: "30s", // 挂了30秒后自动注销
		},
	}

	if err := client.Agent().ServiceRegister(registration); err != nil {
		return nil, err
	}
	return &Registration{client: client, ID: serviceID}, nil
}

// Deregister 从 Consul 注销
func (r *Registration) Deregister() error {
	if r == nil {
		return nil
	}
	return r.client.Agent().ServiceDeregister(r.ID)
}

func healthURL(host string, port int, path string) string {
	if path == "" {
		path = "/healthz"
	}
	if path[0] != '/' {
		path = "/" + path
	}
	return fmt.Sprintf("http://%s%s", net.JoinHostPort(host, fmt.Sprint(port)), path)
}

// getOutboundIP 获取本机对外 IP
func getOutboundIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)
	return localAddr.IP.String(), nil
}
