package source

import "net"

// preferredHostIP returns the LAN address the dashboard is most likely
// reached on: 192.168.1.x first, then any 192.168.x.x, then other private
// ranges, then whatever non-loopback IPv4 is up.
func preferredHostIP() (string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "", err
	}

	var best net.IP
	bestRank := -1
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ip := addrIPv4(addr)
			if ip == nil {
				continue
			}
			if r := ipRank(ip); r > bestRank {
				best, bestRank = ip, r
			}
		}
	}
	if best == nil {
		return "", nil
	}
	return best.String(), nil
}

func addrIPv4(addr net.Addr) net.IP {
	var ip net.IP
	switch a := addr.(type) {
	case *net.IPNet:
		ip = a.IP
	case *net.IPAddr:
		ip = a.IP
	default:
		return nil
	}
	ip = ip.To4()
	if ip == nil || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return nil
	}
	return ip
}

func ipRank(ip net.IP) int {
	switch {
	case ip[0] == 192 && ip[1] == 168 && ip[2] == 1:
		return 3
	case ip[0] == 192 && ip[1] == 168:
		return 2
	case ip.IsPrivate():
		return 1
	default:
		return 0
	}
}
