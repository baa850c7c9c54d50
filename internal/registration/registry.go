package registration

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/lithammer/shortuuid"
	"github.com/sparedge/sparedge/utils"
	clientv3 "go.etcd.io/etcd/client/v3"
	"golang.org/x/net/context"
)

// TTL of the registration lease, in seconds.
const TTL = 20

// getEtcdKey appends to a given unique id the logical path depending on the Area.
// If it is called with an empty string it returns the base path for the current local Area.
func (r *Registry) getEtcdKey(id string) (key string) {
	return fmt.Sprintf("%s/%s/%s", BASEDIR, r.Area, id)
}

// RegisterToEtcd makes a registration to the local Area; an etcd put operation
// is performed with the node's endpoint as value.
func (r *Registry) RegisterToEtcd(endpoint string) (string, error) {
	etcdClient, err := utils.GetEtcdClient()
	if err != nil {
		return "", UnavailableClientErr
	}

	ctx, _ := context.WithTimeout(context.Background(), 1*time.Second)
	// generate unique identifier
	id := shortuuid.New() + strconv.FormatInt(time.Now().UnixNano(), 10)
	r.id = id
	r.Key = r.getEtcdKey(id)

	resp, err := etcdClient.Grant(ctx, int64(TTL))
	if err != nil {
		return "", err
	}

	log.Printf("Registration key: %s\n", r.Key)
	_, err = etcdClient.Put(ctx, r.Key, endpoint, clientv3.WithLease(resp.ID))
	if err != nil {
		return "", IdRegistrationErr
	}

	cancelCtx, _ := context.WithCancel(etcdClient.Ctx())

	// the key will be kept alive until a fault occurs
	keepAliveCh, err := etcdClient.KeepAlive(cancelCtx, resp.ID)
	if err != nil || keepAliveCh == nil {
		return "", KeepAliveErr
	}

	go func() {
		for range keepAliveCh {
			// eat messages until keep alive channel closes
		}
	}()

	return id, nil
}

// GetAll obtains the endpoints of the other nodes registered under the Area,
// keyed by registration id.
func (r *Registry) GetAll() (map[string]string, error) {
	baseDir := r.getEtcdKey("")
	etcdClient, err := utils.GetEtcdClient()
	if err != nil {
		return nil, UnavailableClientErr
	}

	ctx := context.TODO()
	resp, err := etcdClient.Get(ctx, baseDir, clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}

	servers := make(map[string]string, len(resp.Kvs))
	for _, s := range resp.Kvs {
		servers[string(s.Key)] = string(s.Value)
	}
	return servers, nil
}

// Deregister deletes from etcd the key, value pair previously inserted.
func (r *Registry) Deregister() (e error) {
	etcdClient, err := utils.GetEtcdClient()
	if err != nil {
		return UnavailableClientErr
	}

	ctx, _ := context.WithTimeout(context.Background(), 1*time.Second)
	_, err = etcdClient.Delete(ctx, r.Key)
	if err != nil {
		return err
	}

	log.Println("Deregister: " + r.id)
	return nil
}
