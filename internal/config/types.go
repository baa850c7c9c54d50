package config

// RemoteServerConf holds the address of the node a CLI talks to.
type RemoteServerConf struct {
	Host string
	Port int
}
